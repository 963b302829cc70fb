package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkeep/internal/platform/config"
	"travelkeep/internal/profile/models"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBuildInMemory(t *testing.T) {
	cfg := config.FromEnv()
	cfg.Storage.Driver = "memory"
	cfg.Blob.Driver = "memory"
	cfg.Redis.URL = ""
	cfg.Kafka.Brokers = nil

	a, err := Build(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	ctx := context.Background()
	_, err = a.Service.SavePassport(ctx, &models.Passport{PassportNumber: "E1"}, "user1")
	require.NoError(t, err)
	p, err := a.Service.GetPassport(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "E1", p.PassportNumber)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestBuildSQLiteAndFileTree(t *testing.T) {
	dir := t.TempDir()
	cfg := config.FromEnv()
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.SQLitePath = filepath.Join(dir, "db", "travelkeep.db")
	cfg.Blob.Driver = "fs"
	cfg.Blob.Root = filepath.Join(dir, "blobs")
	cfg.Redis.URL = ""
	cfg.Kafka.Brokers = nil

	a, err := Build(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestBuildRejectsUnknownDrivers(t *testing.T) {
	cfg := config.FromEnv()
	cfg.Storage.Driver = "oracle"
	_, err := Build(context.Background(), cfg, testLogger())
	assert.ErrorContains(t, err, "unknown storage driver")

	cfg.Storage.Driver = "memory"
	cfg.Blob.Driver = "ftp"
	_, err = Build(context.Background(), cfg, testLogger())
	assert.ErrorContains(t, err, "unknown blob driver")
}
