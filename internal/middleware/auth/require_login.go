package auth

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/cms_admin/internal/logging"
	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/service"
)

// Authenticate resolves a bearer token into a Session on the request
// context. Requests without a token pass through anonymously so that public
// operations such as login stay reachable; access checks happen in
// RequireUser and RequireSchemaManager.
func Authenticate(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request())
			if token == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			s := &Session{Token: token}
			s.User, s.Data, s.Err = v.Verify(ctx, token)
			if s.Err != nil {
				var authErr *service.AuthenticationError
				if !errors.As(s.Err, &authErr) {
					logging.FromContext(ctx).Error("authenticate_error", "status", 500, "reason", "verify failed", "error", s.Err)
				}
			} else {
				logging.FromContext(ctx).Debug("authenticated", "user_id", s.User.ID.String())
			}

			c.SetRequest(c.Request().WithContext(IntoContext(ctx, s)))
			return next(c)
		}
	}
}

func RequireUser(ctx context.Context) (*models.User, error) {
	s := FromContext(ctx)
	if s == nil {
		return nil, service.NewAuthenticationError(service.MsgAuthRequired)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.User, nil
}
