// Package dbtest opens throwaway sqlite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Skotchmaster/ozonilberries/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Open(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
