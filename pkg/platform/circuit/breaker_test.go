package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fail(b *Breaker, n int) (useFallback bool, change Change) {
	for i := 0; i < n; i++ {
		useFallback, change = b.RecordFailure()
	}
	return useFallback, change
}

func TestNewBreakerIsClosed(t *testing.T) {
	b := New("kafka-bridge")
	assert.Equal(t, "kafka-bridge", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
	assert.False(t, b.IsOpen())
}

func TestDefaultFailureThreshold(t *testing.T) {
	b := New("default")
	useFallback, _ := fail(b, 4)
	assert.False(t, useFallback)

	useFallback, change := b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)
	assert.Equal(t, "open", b.State().String())
}

func TestOpensOnlyOnThreshold(t *testing.T) {
	b := New("t", WithFailureThreshold(2))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.False(t, change.Opened)

	useFallback, change = b.RecordFailure()
	require.True(t, change.Opened)
	assert.True(t, useFallback)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.False(t, change.Opened, "already open")
}

func TestClosesAfterConsecutiveSuccesses(t *testing.T) {
	b := New("t", WithFailureThreshold(1), WithSuccessThreshold(2))
	fail(b, 1)
	require.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.False(t, change.Closed)

	b.RecordFailure()
	usePrimary, _ = b.RecordSuccess()
	assert.False(t, usePrimary, "a failure restarts the success count")

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestSuccessWhileClosedClearsFailures(t *testing.T) {
	b := New("t", WithFailureThreshold(3))
	fail(b, 2)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed)

	fail(b, 2)
	assert.False(t, b.IsOpen())
	fail(b, 1)
	assert.True(t, b.IsOpen())
}

func TestResetAndIgnoredOptions(t *testing.T) {
	b := New("t", WithFailureThreshold(0), WithSuccessThreshold(-1))
	fail(b, 5)
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed)
}
