package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/service"
	"github.com/Skotchmaster/cms_admin/internal/tokens"
)

type stubVerifier map[string]*models.User

func (v stubVerifier) Verify(_ context.Context, token string) (*models.User, *tokens.UserData, error) {
	u, ok := v[token]
	if !ok {
		return nil, nil, service.NewAuthenticationError(service.MsgInvalidToken)
	}
	return u, &tokens.UserData{ID: u.ID.String(), Privilege: u.Privilege}, nil
}

func run(t *testing.T, v Verifier, header string) *Session {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Session
	h := Authenticate(v)(func(c echo.Context) error {
		got = FromContext(c.Request().Context())
		return nil
	})
	require.NoError(t, h(c))
	return got
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	admin := &models.User{ID: uuid.New(), Privilege: models.PrivilegeAdmin}
	editor := &models.User{ID: uuid.New(), Privilege: models.PrivilegeEditor}
	v := stubVerifier{"admin-token": admin, "editor-token": editor}

	tests := []struct {
		name       string
		header     string
		wantUser   *models.User
		userErr    bool
		managerErr error
	}{
		{name: "anonymous", header: "", userErr: true},
		{name: "wrong scheme", header: "Basic admin-token", userErr: true},
		{name: "bad token", header: "Bearer nope", userErr: true},
		{name: "editor", header: "Bearer editor-token", wantUser: editor, managerErr: service.ErrForbidden},
		{name: "admin", header: "bearer admin-token", wantUser: admin},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := run(t, v, tt.header)
			ctx := IntoContext(context.Background(), s)
			if s == nil {
				ctx = context.Background()
			}

			u, err := RequireUser(ctx)
			if tt.userErr {
				var authErr *service.AuthenticationError
				require.ErrorAs(t, err, &authErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser.ID, u.ID)

			_, err = RequireSchemaManager(ctx)
			if tt.managerErr != nil {
				assert.ErrorIs(t, err, tt.managerErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequireUser_Messages(t *testing.T) {
	t.Parallel()

	_, err := RequireUser(context.Background())
	assert.EqualError(t, err, service.MsgAuthRequired)

	ctx := IntoContext(context.Background(), &Session{Token: "x", Err: service.NewAuthenticationError(service.MsgInvalidToken)})
	_, err = RequireUser(ctx)
	assert.EqualError(t, err, service.MsgInvalidToken)
}
