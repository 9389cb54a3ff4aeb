package engine

import (
	"github.com/roach88/algot/internal/ir"
)

// DepthGuard tracks the operation call depth of one replay and enforces a
// maximum.
//
// Each replay has its own DepthGuard. Enter is called before an operation
// runs and Exit after it returns, so Current is the depth of the innermost
// running call: 0 for the root operation, 1 for an operation called by one
// of its actions, and so on.
//
// Operations are acyclic unless a recorded action calls its own operation
// (directly or through another operation). The guard is what terminates
// such recursion when no condition stops it.
type DepthGuard struct {
	maxDepth int
	entered  int
}

// NewDepthGuard creates a guard allowing depths 0..maxDepth.
func NewDepthGuard(maxDepth int) *DepthGuard {
	return &DepthGuard{maxDepth: maxDepth}
}

// Enter records one more nested call.
//
// Returns a MAX_DEPTH_EXCEEDED RuntimeError if the new depth exceeds the
// limit. The call is still counted, so Exit must follow either way.
func (g *DepthGuard) Enter(opID ir.OperationID) error {
	g.entered++
	if depth := g.Current(); depth > g.maxDepth {
		return ir.NewMaxDepthError(opID, depth, g.maxDepth)
	}
	return nil
}

// Exit records that the innermost call returned.
func (g *DepthGuard) Exit() {
	if g.entered > 0 {
		g.entered--
	}
}

// Current returns the depth of the innermost running call, or -1 when no
// call is running.
func (g *DepthGuard) Current() int {
	return g.entered - 1
}

// MaxDepth returns the limit.
func (g *DepthGuard) MaxDepth() int {
	return g.maxDepth
}
