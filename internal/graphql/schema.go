package graphql

import (
	"context"
	"strings"

	"github.com/google/uuid"
	gql "github.com/graphql-go/graphql"

	authmw "github.com/Skotchmaster/cms_admin/internal/middleware/auth"
	"github.com/Skotchmaster/cms_admin/internal/service"
	"github.com/Skotchmaster/cms_admin/internal/util"
)

type Resolver struct {
	Auth   *service.AuthService
	Schema *service.SchemaService
}

func NewSchema(r *Resolver) (gql.Schema, error) {
	return gql.NewSchema(gql.SchemaConfig{
		Query: gql.NewObject(gql.ObjectConfig{
			Name:   "Query",
			Fields: r.queries(),
		}),
		Mutation: gql.NewObject(gql.ObjectConfig{
			Name:   "Mutation",
			Fields: r.mutations(),
		}),
	})
}

func nonNullString() *gql.ArgumentConfig {
	return &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)}
}

func nonNullID() *gql.ArgumentConfig {
	return &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)}
}

func optional(t gql.Input) *gql.ArgumentConfig {
	return &gql.ArgumentConfig{Type: t}
}

func argString(p gql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func argBool(p gql.ResolveParams, name string) bool {
	b, _ := p.Args[name].(bool)
	return b
}

func argInt(p gql.ResolveParams, name string, def int) int {
	if n, ok := p.Args[name].(int); ok {
		return n
	}
	return def
}

func argUUID(p gql.ResolveParams, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(argString(p, name)))
	if err != nil {
		return uuid.Nil, badInput("invalid "+name, name)
	}
	return id, nil
}

// resolve wraps a resolver body so every returned error goes through the
// code mapping in toError.
func resolve(op string, fn func(ctx context.Context, p gql.ResolveParams) (any, error)) gql.FieldResolveFn {
	return func(p gql.ResolveParams) (any, error) {
		ctx := p.Context
		if ctx == nil {
			ctx = context.Background()
		}
		out, err := fn(ctx, p)
		if err != nil {
			return nil, toError(ctx, op, err)
		}
		return out, nil
	}
}

func (r *Resolver) queries() gql.Fields {
	return gql.Fields{
		"getModel": &gql.Field{
			Type: modelType,
			Args: gql.FieldConfigArgument{"identifier": nonNullString()},
			Resolve: resolve("get_model", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				if _, err := authmw.RequireUser(ctx); err != nil {
					return nil, err
				}
				m, err := r.Schema.GetModel(ctx, argString(p, "identifier"))
				if err != nil {
					return nil, err
				}
				return modelMap(m), nil
			}),
		},
		"getModels": &gql.Field{
			Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(modelType))),
			Resolve: resolve("get_models", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				if _, err := authmw.RequireUser(ctx); err != nil {
					return nil, err
				}
				ms, err := r.Schema.GetModels(ctx)
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, len(ms))
				for i := range ms {
					out[i] = modelMap(&ms[i])
				}
				return out, nil
			}),
		},
		"getFields": &gql.Field{
			Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(fieldType))),
			Args: gql.FieldConfigArgument{"modelId": nonNullID()},
			Resolve: resolve("get_fields", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				if _, err := authmw.RequireUser(ctx); err != nil {
					return nil, err
				}
				id, err := argUUID(p, "modelId")
				if err != nil {
					return nil, err
				}
				fs, err := r.Schema.GetFields(ctx, id)
				if err != nil {
					return nil, err
				}
				return fieldList(fs), nil
			}),
		},
		"getUserData": &gql.Field{
			Type: userDataType,
			Args: gql.FieldConfigArgument{"at": nonNullString()},
			Resolve: resolve("get_user_data", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				_, data, err := r.Auth.Verify(ctx, argString(p, "at"))
				if err != nil {
					return nil, err
				}
				return userDataMap(data), nil
			}),
		},
		"me": &gql.Field{
			Type: userType,
			Resolve: resolve("me", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				u, err := authmw.RequireUser(ctx)
				if err != nil {
					return nil, err
				}
				return userMap(u), nil
			}),
		},
		"searchModels": &gql.Field{
			Type: gql.NewNonNull(searchResultType),
			Args: gql.FieldConfigArgument{
				"query": nonNullString(),
				"page":  optional(gql.Int),
				"size":  optional(gql.Int),
			},
			Resolve: resolve("search_models", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				if _, err := authmw.RequireUser(ctx); err != nil {
					return nil, err
				}
				from, size := util.Calculate(argInt(p, "page", 1), argInt(p, "size", util.DefaultPageSize))
				res, err := r.Schema.SearchModels(ctx, argString(p, "query"), from, size)
				if err != nil {
					return nil, err
				}
				hits := make([]map[string]any, len(res.Hits))
				for i, d := range res.Hits {
					hits[i] = hitMap(d)
				}
				return map[string]any{"total": int(res.Total), "hits": hits}, nil
			}),
		},
	}
}

func (r *Resolver) mutations() gql.Fields {
	return gql.Fields{
		"login": &gql.Field{
			Type: gql.NewNonNull(authPayloadType),
			Args: gql.FieldConfigArgument{
				"email":    nonNullString(),
				"password": nonNullString(),
			},
			Resolve: resolve("login", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				res, err := r.Auth.Login(ctx, argString(p, "email"), argString(p, "password"))
				if err != nil {
					return nil, err
				}
				return map[string]any{"token": res.Token}, nil
			}),
		},
		"createUser": &gql.Field{
			Type: gql.NewNonNull(userType),
			Args: gql.FieldConfigArgument{
				"username": nonNullString(),
				"email":    nonNullString(),
				"password": nonNullString(),
			},
			Resolve: resolve("create_user", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				u, err := r.Auth.Register(ctx, argString(p, "username"), argString(p, "email"), argString(p, "password"))
				if err != nil {
					return nil, err
				}
				return userMap(u), nil
			}),
		},
		"setUserActive": &gql.Field{
			Type: gql.NewNonNull(userType),
			Args: gql.FieldConfigArgument{
				"id":     nonNullID(),
				"active": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.Boolean)},
			},
			Resolve: resolve("set_user_active", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				if _, err := authmw.RequireSchemaManager(ctx); err != nil {
					return nil, err
				}
				id, err := argUUID(p, "id")
				if err != nil {
					return nil, err
				}
				u, err := r.Auth.SetActive(ctx, id, argBool(p, "active"))
				if err != nil {
					return nil, err
				}
				return userMap(u), nil
			}),
		},
		"createModel": &gql.Field{
			Type: gql.NewNonNull(modelType),
			Args: gql.FieldConfigArgument{
				"modelName":   nonNullString(),
				"identifier":  optional(gql.String),
				"description": optional(gql.String),
			},
			Resolve: resolve("create_model", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				if _, err := authmw.RequireSchemaManager(ctx); err != nil {
					return nil, err
				}
				m, err := r.Schema.CreateModel(ctx, service.CreateModelInput{
					ModelName:   argString(p, "modelName"),
					Identifier:  argString(p, "identifier"),
					Description: argString(p, "description"),
				})
				if err != nil {
					return nil, err
				}
				return modelMap(m), nil
			}),
		},
		"deleteModel": &gql.Field{
			Type: gql.NewNonNull(modelType),
			Args: gql.FieldConfigArgument{"id": nonNullID()},
			Resolve: resolve("delete_model", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				if _, err := authmw.RequireSchemaManager(ctx); err != nil {
					return nil, err
				}
				id, err := argUUID(p, "id")
				if err != nil {
					return nil, err
				}
				m, err := r.Schema.DeleteModel(ctx, id)
				if err != nil {
					return nil, err
				}
				return modelMap(m), nil
			}),
		},
		"createField": &gql.Field{
			Type: gql.NewNonNull(fieldType),
			Args: gql.FieldConfigArgument{
				"modelId":      nonNullID(),
				"fieldName":    nonNullString(),
				"identifier":   nonNullString(),
				"type":         nonNullString(),
				"defaultValue": optional(gql.String),
				"description":  optional(gql.String),
				"isHide":       optional(gql.Boolean),
				"isMedia":      optional(gql.Boolean),
				"isUnique":     optional(gql.Boolean),
				"isRequired":   optional(gql.Boolean),
				"isSystem":     optional(gql.Boolean),
				"isPrimaryKey": optional(gql.Boolean),
			},
			Resolve: resolve("create_field", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				if _, err := authmw.RequireSchemaManager(ctx); err != nil {
					return nil, err
				}
				modelID, err := argUUID(p, "modelId")
				if err != nil {
					return nil, err
				}
				f, err := r.Schema.CreateField(ctx, service.CreateFieldInput{
					ModelID:      modelID,
					FieldName:    argString(p, "fieldName"),
					Identifier:   argString(p, "identifier"),
					Type:         argString(p, "type"),
					DefaultValue: argString(p, "defaultValue"),
					Description:  argString(p, "description"),
					IsHide:       argBool(p, "isHide"),
					IsMedia:      argBool(p, "isMedia"),
					IsUnique:     argBool(p, "isUnique"),
					IsRequired:   argBool(p, "isRequired"),
					IsSystem:     argBool(p, "isSystem"),
					IsPrimaryKey: argBool(p, "isPrimaryKey"),
				})
				if err != nil {
					return nil, err
				}
				return fieldMap(f), nil
			}),
		},
		"deleteField": &gql.Field{
			Type: gql.NewNonNull(fieldType),
			Args: gql.FieldConfigArgument{"id": nonNullID()},
			Resolve: resolve("delete_field", func(ctx context.Context, p gql.ResolveParams) (any, error) {
				if _, err := authmw.RequireSchemaManager(ctx); err != nil {
					return nil, err
				}
				id, err := argUUID(p, "id")
				if err != nil {
					return nil, err
				}
				f, err := r.Schema.DeleteField(ctx, id)
				if err != nil {
					return nil, err
				}
				return fieldMap(f), nil
			}),
		},
	}
}
