// Package dbtest provides migrated in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"hackbot/internal/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// New returns a fresh database shared by every connection of the returned handle.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("sqlite://file:hackbot_test_%d?mode=memory&cache=shared", seq.Add(1))
	gdb, err := db.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAndIndexes(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}
