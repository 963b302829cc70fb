package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkeep/internal/app"
	"travelkeep/internal/platform/config"
)

func memoryBuilder(ctx context.Context) (*app.App, error) {
	cfg := config.FromEnv()
	cfg.Storage.Driver = "memory"
	cfg.Blob.Driver = "memory"
	cfg.Redis.URL = ""
	cfg.Kafka.Brokers = nil
	return app.Build(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func run(t *testing.T, args ...string) (map[string]any, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(memoryBuilder)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	var res map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &res), out.String())
	return res, nil
}

func TestCacheStats(t *testing.T) {
	res, err := run(t, "cache-stats", "--user", "user1")
	require.NoError(t, err)
	assert.Contains(t, res, "hits")
	assert.Contains(t, res, "misses")
}

func TestConflictsWithoutLegacyStore(t *testing.T) {
	res, err := run(t, "conflicts", "--user", "user1")
	require.NoError(t, err)
	assert.Equal(t, false, res["hasConflicts"])
}

func TestMigrateRequiresUser(t *testing.T) {
	_, err := run(t, "migrate")
	assert.Error(t, err)
}

func TestAuditVerifyUnknownSnapshot(t *testing.T) {
	res, err := run(t, "audit", "verify", "snap-unknown")
	require.NoError(t, err)
	assert.Equal(t, float64(0), res["totalEvents"])
}

func TestAuditExportRejectsFormat(t *testing.T) {
	_, err := run(t, "audit", "export", "snap-1", "--format", "xml")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	res, err := run(t, "token", "--user", "user1")
	require.NoError(t, err)
	assert.NotEmpty(t, res["access_token"])
}
