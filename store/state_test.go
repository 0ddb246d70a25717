package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleTransitions(t *testing.T) {
	var l Lifecycle
	assert.Equal(t, StateIdle, l.State())
	assert.True(t, errors.Is(l.Ready(), ErrNotReady))

	require.NoError(t, l.Open())
	require.NoError(t, l.Open())
	assert.Equal(t, StateOpen, l.State())
	assert.NoError(t, l.Ready())

	assert.True(t, l.Shut())
	assert.False(t, l.Shut())
	assert.Equal(t, StateClosed, l.State())
	assert.True(t, errors.Is(l.Ready(), ErrNotReady))
	assert.True(t, errors.Is(l.Open(), ErrNotReady))
}

func TestContactRequestPurgeEmpty(t *testing.T) {
	assert.True(t, ContactRequestPurge{}.Empty())
	assert.False(t, ContactRequestPurge{User: "u1"}.Empty())
	assert.False(t, ContactRequestPurge{PropertyIDs: []string{"p1"}}.Empty())
}
