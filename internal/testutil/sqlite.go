package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/cms_admin/internal/db"
	"github.com/Skotchmaster/cms_admin/internal/hash"
	"github.com/Skotchmaster/cms_admin/internal/models"
)

// InitTestDB opens a migrated in-memory SQLite database private to t.
func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	ctx := context.Background()
	gdb, err := db.Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func CreateUser(t *testing.T, gdb *gorm.DB, username, email, password, privilege string, active bool) *models.User {
	t.Helper()

	pw, err := hash.HashPassword(password)
	require.NoError(t, err)

	u := &models.User{
		Username:  username,
		Email:     email,
		Password:  pw,
		Privilege: privilege,
		Active:    active,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func CreateModel(t *testing.T, gdb *gorm.DB, identifier, name string) *models.Model {
	t.Helper()

	m := &models.Model{Identifier: identifier, ModelName: name}
	require.NoError(t, gdb.Omit("Fields").Create(m).Error)
	return m
}
