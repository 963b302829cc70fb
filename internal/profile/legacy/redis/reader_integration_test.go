//go:build integration

package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelkeep/pkg/testutil/containers"
)

func TestReaderAgainstRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))
	require.NoError(t, rc.Client.Set(ctx, "app:@passport_user1", `{"passportNumber":"E1"}`, 0).Err())

	r := New(rc.Client, "app:")
	v, found, err := r.GetItem(ctx, "@passport_user1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"passportNumber":"E1"}`, v)

	_, found, err = r.GetItem(ctx, "@passport_user2")
	require.NoError(t, err)
	assert.False(t, found)
}
