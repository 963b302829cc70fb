package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"travelkeep/internal/profile/store/storetest"
)

type SQLiteStoreSuite struct {
	storetest.AdapterSuite
}

func TestSQLiteStoreSuite(t *testing.T) {
	dir := t.TempDir()
	n := 0
	suite.Run(t, &SQLiteStoreSuite{
		AdapterSuite: storetest.AdapterSuite{
			Factory: func() storetest.Adapter {
				n++
				s, err := OpenSQLite(context.Background(), filepath.Join(dir, fmt.Sprintf("tk-%d.db", n)))
				require.NoError(t, err)
				t.Cleanup(func() { _ = s.Close() })
				return s
			},
		},
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tk.db")
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, Migrate(s.DB(), DialectSQLite))
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, reopened.Close())
}

func TestRebind(t *testing.T) {
	pg := New(nil, DialectPostgres)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)", pg.rebind("SELECT * FROM t WHERE a = ? AND b IN (?, ?)"))

	lite := New(nil, DialectSQLite)
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}
