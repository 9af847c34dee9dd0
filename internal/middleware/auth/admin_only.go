package auth

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/cms_admin/internal/models"
	"github.com/Skotchmaster/cms_admin/internal/service"
)

// RequireSchemaManager allows only god and admin accounts through.
func RequireSchemaManager(ctx context.Context) (*models.User, error) {
	u, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !u.CanManageSchema() {
		return nil, fmt.Errorf("privilege %q: %w", u.Privilege, service.ErrForbidden)
	}
	return u, nil
}
