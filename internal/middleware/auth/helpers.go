package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/tokens"
)

type Verifier interface {
	Verify(ctx context.Context, token string) (*models.User, *tokens.UserData, error)
}

// Session is what Authenticate learned about the caller. Err is set when a
// token was presented but could not be verified.
type Session struct {
	Token string
	User  *models.User
	Data  *tokens.UserData
	Err   error
}

type ctxKey struct{}

func IntoContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns nil for anonymous requests.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
