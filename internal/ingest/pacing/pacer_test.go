package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerAllowsWithinBurst(t *testing.T) {
	p := NewPacer(1, 3)
	assert.True(t, p.Allow())
	assert.True(t, p.Allow())
	assert.True(t, p.Allow())
	assert.False(t, p.Allow(), "fourth call exceeds the burst of 3")
}

func TestPacerWaitRespectsContextCancellation(t *testing.T) {
	p := NewPacer(0.001, 1)
	p.Allow() // consume the single burst token

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := p.Wait(ctx)
	assert.Error(t, err)
}

func TestManagerUnregisteredStreamAlwaysAllowed(t *testing.T) {
	m := NewManager()
	assert.True(t, m.Allow("unregistered"))
	require.NoError(t, m.Wait(context.Background(), "unregistered"))
}

func TestManagerRegisteredStreamEnforcesBurst(t *testing.T) {
	m := NewManager()
	m.Register("persistence.snapshot", 1, 2)

	assert.True(t, m.Allow("persistence.snapshot"))
	assert.True(t, m.Allow("persistence.snapshot"))
	assert.False(t, m.Allow("persistence.snapshot"))
}

func TestManagerGetReturnsRegisteredPacer(t *testing.T) {
	m := NewManager()
	m.Register("historical.retry", 5, 5)

	p, ok := m.Get("historical.retry")
	require.True(t, ok)
	assert.NotNil(t, p)
}
