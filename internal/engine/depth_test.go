package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/algot/internal/ir"
)

func TestDepthGuard(t *testing.T) {
	g := NewDepthGuard(2)
	assert.Equal(t, -1, g.Current())
	assert.Equal(t, 2, g.MaxDepth())

	for depth := 0; depth <= 2; depth++ {
		require.NoError(t, g.Enter("f"))
		assert.Equal(t, depth, g.Current())
	}

	err := g.Enter("f")
	require.Error(t, err)
	assert.True(t, ir.IsMaxDepthError(err))
	re, _ := ir.AsRuntimeError(err)
	assert.Equal(t, "3", re.Details["depth"])
	assert.Equal(t, ir.OperationID("f"), re.OperationID)

	g.Exit()
	assert.Equal(t, 2, g.Current(), "a failed Enter still counts until Exit")
}

func TestDepthGuardExitFloors(t *testing.T) {
	g := NewDepthGuard(1)
	g.Exit()
	assert.Equal(t, -1, g.Current())

	require.NoError(t, g.Enter("f"))
	g.Exit()
	g.Exit()
	assert.Equal(t, -1, g.Current())
}

func TestDepthGuardZero(t *testing.T) {
	g := NewDepthGuard(0)
	require.NoError(t, g.Enter("root"))
	assert.True(t, ir.IsMaxDepthError(g.Enter("child")))
}
