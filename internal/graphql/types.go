package graphql

import (
	"time"

	gql "github.com/graphql-go/graphql"

	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/search"
	"github.com/Skotchmaster/cms_admin/internal/tokens"
)

var authPayloadType = gql.NewObject(gql.ObjectConfig{
	Name: "AuthPayload",
	Fields: gql.Fields{
		"token": &gql.Field{Type: gql.NewNonNull(gql.String)},
	},
})

var userType = gql.NewObject(gql.ObjectConfig{
	Name: "User",
	Fields: gql.Fields{
		"id":        &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"username":  &gql.Field{Type: gql.NewNonNull(gql.String)},
		"email":     &gql.Field{Type: gql.NewNonNull(gql.String)},
		"privilege": &gql.Field{Type: gql.NewNonNull(gql.String)},
		"active":    &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"createdAt": &gql.Field{Type: gql.String},
	},
})

var userDataType = gql.NewObject(gql.ObjectConfig{
	Name: "UserData",
	Fields: gql.Fields{
		"id":        &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"username":  &gql.Field{Type: gql.NewNonNull(gql.String)},
		"email":     &gql.Field{Type: gql.NewNonNull(gql.String)},
		"privilege": &gql.Field{Type: gql.NewNonNull(gql.String)},
		"active":    &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
	},
})

var fieldType = gql.NewObject(gql.ObjectConfig{
	Name: "Field",
	Fields: gql.Fields{
		"id":           &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"modelId":      &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"identifier":   &gql.Field{Type: gql.NewNonNull(gql.String)},
		"fieldName":    &gql.Field{Type: gql.NewNonNull(gql.String)},
		"type":         &gql.Field{Type: gql.NewNonNull(gql.String)},
		"defaultValue": &gql.Field{Type: gql.String},
		"description":  &gql.Field{Type: gql.String},
		"isHide":       &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"isMedia":      &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"isUnique":     &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"isRequired":   &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"isSystem":     &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"isPrimaryKey": &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
		"createdAt":    &gql.Field{Type: gql.String},
	},
})

var modelType = gql.NewObject(gql.ObjectConfig{
	Name: "Model",
	Fields: gql.Fields{
		"id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"identifier":  &gql.Field{Type: gql.NewNonNull(gql.String)},
		"modelName":   &gql.Field{Type: gql.NewNonNull(gql.String)},
		"description": &gql.Field{Type: gql.String},
		"fields":      &gql.Field{Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(fieldType)))},
		"createdAt":   &gql.Field{Type: gql.String},
	},
})

var searchHitType = gql.NewObject(gql.ObjectConfig{
	Name: "SearchHit",
	Fields: gql.Fields{
		"id":          &gql.Field{Type: gql.NewNonNull(gql.ID)},
		"identifier":  &gql.Field{Type: gql.NewNonNull(gql.String)},
		"modelName":   &gql.Field{Type: gql.NewNonNull(gql.String)},
		"description": &gql.Field{Type: gql.String},
	},
})

var searchResultType = gql.NewObject(gql.ObjectConfig{
	Name: "SearchResult",
	Fields: gql.Fields{
		"total": &gql.Field{Type: gql.NewNonNull(gql.Int)},
		"hits":  &gql.Field{Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(searchHitType)))},
	},
})

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func userMap(u *models.User) map[string]any {
	return map[string]any{
		"id":        u.ID.String(),
		"username":  u.Username,
		"email":     u.Email,
		"privilege": u.Privilege,
		"active":    u.Active,
		"createdAt": timestamp(u.CreatedAt),
	}
}

func userDataMap(d *tokens.UserData) map[string]any {
	return map[string]any{
		"id":        d.ID,
		"username":  d.Username,
		"email":     d.Email,
		"privilege": d.Privilege,
		"active":    d.Active,
	}
}

func fieldMap(f *models.Field) map[string]any {
	return map[string]any{
		"id":           f.ID.String(),
		"modelId":      f.ModelID.String(),
		"identifier":   f.Identifier,
		"fieldName":    f.FieldName,
		"type":         f.Type,
		"defaultValue": f.DefaultValue,
		"description":  f.Description,
		"isHide":       f.IsHide,
		"isMedia":      f.IsMedia,
		"isUnique":     f.IsUnique,
		"isRequired":   f.IsRequired,
		"isSystem":     f.IsSystem,
		"isPrimaryKey": f.IsPrimaryKey,
		"createdAt":    timestamp(f.CreatedAt),
	}
}

func fieldList(fs []models.Field) []map[string]any {
	out := make([]map[string]any, len(fs))
	for i := range fs {
		out[i] = fieldMap(&fs[i])
	}
	return out
}

func modelMap(m *models.Model) map[string]any {
	return map[string]any{
		"id":          m.ID.String(),
		"identifier":  m.Identifier,
		"modelName":   m.ModelName,
		"description": m.Description,
		"fields":      fieldList(m.Fields),
		"createdAt":   timestamp(m.CreatedAt),
	}
}

func hitMap(d search.Document) map[string]any {
	return map[string]any{
		"id":          d.ID,
		"identifier":  d.Identifier,
		"modelName":   d.ModelName,
		"description": d.Description,
	}
}
