package graphql_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cms_admin/internal/events"
	"github.com/Skotchmaster/cms_admin/internal/graphql"
	authmw "github.com/Skotchmaster/cms_admin/internal/middleware/auth"
	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/repo"
	"github.com/Skotchmaster/cms_admin/internal/service"
	"github.com/Skotchmaster/cms_admin/internal/testutil"
	"github.com/Skotchmaster/cms_admin/internal/tokens"
)

type gqlError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions"`
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []gqlError                 `json:"errors"`
}

func (r gqlResponse) code() string {
	if len(r.Errors) == 0 {
		return ""
	}
	c, _ := r.Errors[0].Extensions["code"].(string)
	return c
}

type testEnv struct {
	e   *echo.Echo
	gdb *gorm.DB
	iss *tokens.Issuer
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := testutil.InitTestDB(t)
	r := repo.New(gdb)
	iss, err := tokens.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	authSvc := &service.AuthService{Repo: r, Issuer: iss, Events: events.Noop{}}
	schemaSvc := &service.SchemaService{Repo: r, Events: events.Noop{}}

	schema, err := graphql.NewSchema(&graphql.Resolver{Auth: authSvc, Schema: schemaSvc})
	require.NoError(t, err)

	e := echo.New()
	h := &graphql.GraphQLHTTP{Schema: schema}
	e.POST("/graphql", h.Serve, authmw.Authenticate(authSvc))

	return &testEnv{e: e, gdb: gdb, iss: iss}
}

func (env *testEnv) post(t *testing.T, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) do(t *testing.T, token, query string, vars map[string]any) gqlResponse {
	t.Helper()

	rec := env.post(t, token, graphql.Request{Query: query, Variables: vars})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res gqlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func (env *testEnv) tokenFor(t *testing.T, privilege string) string {
	t.Helper()

	u := testutil.CreateUser(t, env.gdb, privilege+"-user", privilege+"@example.com", "pw", privilege, true)
	tok, err := env.iss.Issue(u)
	require.NoError(t, err)
	return tok
}

const loginMutation = `mutation Login($email: String!, $password: String!) {
	login(email: $email, password: $password) { token }
}`

func TestLogin(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	testutil.CreateUser(t, env.gdb, "alice", "alice@example.com", "pw1", models.PrivilegeAdmin, true)
	testutil.CreateUser(t, env.gdb, "bob", "bob@example.com", "pw2", models.PrivilegeUser, false)

	t.Run("success", func(t *testing.T) {
		res := env.do(t, "", loginMutation, map[string]any{"email": "alice@example.com", "password": "pw1"})
		require.Empty(t, res.Errors)

		var login struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(res.Data["login"], &login))
		require.NotEmpty(t, login.Token)

		claims, err := env.iss.Parse(login.Token)
		require.NoError(t, err)
		data, err := tokens.DecodeData(claims.Data)
		require.NoError(t, err)
		assert.Equal(t, "alice", data.Username)
	})

	tests := []struct {
		name     string
		email    string
		password string
		msg      string
	}{
		{"unknown email", "ghost@example.com", "pw1", service.MsgInvalidLogin},
		{"wrong password", "alice@example.com", "bad", service.MsgInvalidLogin},
		{"inactive", "bob@example.com", "pw2", service.MsgNotActivated},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res := env.do(t, "", loginMutation, map[string]any{"email": tt.email, "password": tt.password})
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.msg, res.Errors[0].Message)
			assert.Equal(t, graphql.CodeUnauthenticated, res.code())
		})
	}
}

func TestProtectedOperations_RequireToken(t *testing.T) {
	t.Parallel()

	env := newEnv(t)

	res := env.do(t, "", `{ getModels { id } }`, nil)
	assert.Equal(t, graphql.CodeUnauthenticated, res.code())
	assert.Equal(t, service.MsgAuthRequired, res.Errors[0].Message)

	res = env.do(t, "garbage", `{ me { id } }`, nil)
	assert.Equal(t, graphql.CodeUnauthenticated, res.code())
	assert.Equal(t, service.MsgInvalidToken, res.Errors[0].Message)
}

func TestSchemaWrites_RequireManager(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	tok := env.tokenFor(t, models.PrivilegeEditor)

	res := env.do(t, tok, `mutation { createModel(modelName: "Blog Post") { id } }`, nil)
	assert.Equal(t, graphql.CodeForbidden, res.code())

	res = env.do(t, tok, `{ me { username privilege } }`, nil)
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"username":"editor-user","privilege":"editor"}`, string(res.Data["me"]))
}

const createFieldMutation = `mutation CreateField(
	$modelId: ID!, $fieldName: String!, $identifier: String!, $type: String!,
	$defaultValue: String, $description: String, $isRequired: Boolean
) {
	createField(
		modelId: $modelId, fieldName: $fieldName, identifier: $identifier, type: $type,
		defaultValue: $defaultValue, description: $description, isRequired: $isRequired
	) { id identifier fieldName type isRequired isHide }
}`

func TestSchemaFlow(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	tok := env.tokenFor(t, models.PrivilegeAdmin)

	res := env.do(t, tok, `mutation { createModel(modelName: "Blog Post") { id identifier } }`, nil)
	require.Empty(t, res.Errors)
	var model struct {
		ID         string `json:"id"`
		Identifier string `json:"identifier"`
	}
	require.NoError(t, json.Unmarshal(res.Data["createModel"], &model))
	assert.Equal(t, "blogPost", model.Identifier)

	vars := map[string]any{
		"modelId":    model.ID,
		"fieldName":  "Title",
		"identifier": "title",
		"type":       "string",
		"isRequired": true,
	}
	res = env.do(t, tok, createFieldMutation, vars)
	require.Empty(t, res.Errors)
	var field struct {
		ID         string `json:"id"`
		Identifier string `json:"identifier"`
		FieldName  string `json:"fieldName"`
		IsRequired bool   `json:"isRequired"`
		IsHide     bool   `json:"isHide"`
	}
	require.NoError(t, json.Unmarshal(res.Data["createField"], &field))
	assert.NotEmpty(t, field.ID)
	assert.Equal(t, "title", field.Identifier)
	assert.Equal(t, "Title", field.FieldName)
	assert.True(t, field.IsRequired)
	assert.False(t, field.IsHide)

	res = env.do(t, tok, createFieldMutation, vars)
	assert.Equal(t, graphql.CodeConflict, res.code())

	vars["fieldName"] = ""
	vars["identifier"] = ""
	res = env.do(t, tok, createFieldMutation, vars)
	assert.Equal(t, graphql.CodeBadUserInput, res.code())
	assert.ElementsMatch(t, []any{"fieldName", "identifier"}, res.Errors[0].Extensions["fields"])

	res = env.do(t, tok, `query($id: String!) { getModel(identifier: $id) { modelName fields { identifier } } }`,
		map[string]any{"id": "blogPost"})
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"modelName":"Blog Post","fields":[{"identifier":"title"}]}`, string(res.Data["getModel"]))

	res = env.do(t, tok, `{ getModel(identifier: "nope") { id } }`, nil)
	assert.Equal(t, graphql.CodeNotFound, res.code())

	res = env.do(t, tok, `query($id: ID!) { getFields(modelId: $id) { identifier } }`, map[string]any{"id": model.ID})
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `[{"identifier":"title"}]`, string(res.Data["getFields"]))

	res = env.do(t, tok, `{ searchModels(query: "blog") { total } }`, nil)
	assert.Equal(t, graphql.CodeUnavailable, res.code())

	res = env.do(t, tok, `mutation($id: ID!) { deleteModel(id: $id) { identifier } }`, map[string]any{"id": model.ID})
	require.Empty(t, res.Errors)

	res = env.do(t, tok, `mutation($id: ID!) { deleteModel(id: $id) { identifier } }`, map[string]any{"id": model.ID})
	assert.Equal(t, graphql.CodeNotFound, res.code())

	res = env.do(t, tok, `mutation { deleteField(id: "not-a-uuid") { id } }`, nil)
	assert.Equal(t, graphql.CodeBadUserInput, res.code())
}

func TestCreateUserAndActivate(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	admin := env.tokenFor(t, models.PrivilegeGod)

	res := env.do(t, "", `mutation { createUser(username: "carol", email: "carol@example.com", password: "pw") { id active privilege } }`, nil)
	require.Empty(t, res.Errors)
	var u struct {
		ID        string `json:"id"`
		Active    bool   `json:"active"`
		Privilege string `json:"privilege"`
	}
	require.NoError(t, json.Unmarshal(res.Data["createUser"], &u))
	assert.False(t, u.Active)
	assert.Equal(t, models.PrivilegeUser, u.Privilege)

	res = env.do(t, "", loginMutation, map[string]any{"email": "carol@example.com", "password": "pw"})
	assert.Equal(t, service.MsgNotActivated, res.Errors[0].Message)

	res = env.do(t, admin, `mutation($id: ID!) { setUserActive(id: $id, active: true) { active } }`, map[string]any{"id": u.ID})
	require.Empty(t, res.Errors)

	res = env.do(t, "", loginMutation, map[string]any{"email": "carol@example.com", "password": "pw"})
	require.Empty(t, res.Errors)
}

func TestGetUserData(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	tok := env.tokenFor(t, models.PrivilegeAdmin)

	res := env.do(t, "", `query($at: String!) { getUserData(at: $at) { username privilege active } }`, map[string]any{"at": tok})
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"username":"admin-user","privilege":"admin","active":true}`, string(res.Data["getUserData"]))

	res = env.do(t, "", `{ getUserData(at: "junk") { username } }`, nil)
	assert.Equal(t, graphql.CodeUnauthenticated, res.code())
}

func TestServe_BadRequests(t *testing.T) {
	t.Parallel()

	env := newEnv(t)

	rec := env.post(t, "", map[string]any{"query": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
