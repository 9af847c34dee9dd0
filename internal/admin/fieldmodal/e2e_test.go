package fieldmodal_test

import (
	"context"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/cms_admin/internal/admin/fieldmodal"
	"github.com/Skotchmaster/cms_admin/internal/events"
	"github.com/Skotchmaster/cms_admin/internal/gqlclient"
	"github.com/Skotchmaster/cms_admin/internal/graphql"
	"github.com/Skotchmaster/cms_admin/internal/logging"
	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/repo"
	"github.com/Skotchmaster/cms_admin/internal/service"
	"github.com/Skotchmaster/cms_admin/internal/testutil"
	"github.com/Skotchmaster/cms_admin/internal/tokens"
	httpserver "github.com/Skotchmaster/cms_admin/internal/transport/http"
)

func startServer(t *testing.T) *gqlclient.Client {
	t.Helper()

	gdb := testutil.InitTestDB(t)
	testutil.CreateUser(t, gdb, "admin", "admin@example.com", "pw", models.PrivilegeAdmin, true)
	testutil.CreateModel(t, gdb, "blogPost", "Blog Post")

	r := repo.New(gdb)
	iss, err := tokens.NewIssuer("e2e-secret", time.Hour)
	require.NoError(t, err)
	authSvc := &service.AuthService{Repo: r, Issuer: iss, Events: events.Noop{}}
	schemaSvc := &service.SchemaService{Repo: r, Events: events.Noop{}}

	schema, err := graphql.NewSchema(&graphql.Resolver{Auth: authSvc, Schema: schemaSvc})
	require.NoError(t, err)

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		Logger:   logging.NewWithWriter(io.Discard, "error"),
		GraphQL:  &graphql.GraphQLHTTP{Schema: schema},
		Verifier: authSvc,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	c := gqlclient.NewClient(srv.URL + "/graphql")
	_, err = c.Login(context.Background(), "admin@example.com", "pw")
	require.NoError(t, err)
	return c
}

func TestModal_CreatesFieldThroughServer(t *testing.T) {
	t.Parallel()

	client := startServer(t)
	ctx := context.Background()

	var closed, reloads atomic.Int32
	m := fieldmodal.New(client)
	m.Delay = time.Millisecond
	m.Open(fieldmodal.Options{
		ModelIdentifier: "blogPost",
		Type:            "string",
		OnClose:         func() { closed.Add(1) },
		Reload:          func() { reloads.Add(1) },
	})

	require.NoError(t, m.Change(fieldmodal.KeyFieldName, "Title"))
	require.NoError(t, m.Change(fieldmodal.KeyIdentifier, "title"))
	require.NoError(t, m.Submit(ctx))

	assert.Equal(t, fieldmodal.StatusClosed, m.Status())
	assert.EqualValues(t, 1, closed.Load())
	assert.EqualValues(t, 1, reloads.Load())

	model, err := client.GetModel(ctx, "blogPost")
	require.NoError(t, err)
	require.Len(t, model.Fields, 1)
	f := model.Fields[0]
	assert.Equal(t, "title", f.Identifier)
	assert.Equal(t, "Title", f.FieldName)
	assert.Equal(t, "string", f.Type)
	assert.Equal(t, model.ID, f.ModelID)
	assert.True(t, f.IsRequired)

	t.Run("duplicate identifier", func(t *testing.T) {
		m.Open(fieldmodal.Options{ModelIdentifier: "blogPost", Type: "string"})
		require.NoError(t, m.Change(fieldmodal.KeyFieldName, "Title"))

		err := m.Submit(ctx)
		var pErr *fieldmodal.PersistenceError
		require.ErrorAs(t, err, &pErr)
		assert.Equal(t, "createField", pErr.Op)

		var rErr *gqlclient.ResponseError
		require.ErrorAs(t, err, &rErr)
		assert.Equal(t, "CONFLICT", rErr.Code)
		assert.Equal(t, fieldmodal.StatusError, m.Status())
	})

	t.Run("unknown model", func(t *testing.T) {
		m.Close()
		m.Open(fieldmodal.Options{ModelIdentifier: "nope", Type: "string"})
		require.NoError(t, m.Change(fieldmodal.KeyFieldName, "Body"))

		err := m.Submit(ctx)
		require.Error(t, err)
		assert.Equal(t, "model nope not found", m.Err().Error())
	})
}
