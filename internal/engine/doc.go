// Package engine replays recorded operations.
//
// The engine is the heart of algot. Given an operation and bound input
// nodes, it pattern-matches the operation's formal inputs, then walks the
// recorded action list: resolving each action's input descriptors,
// evaluating its query conditions and, when they hold, executing the
// called operation. Nested user-defined operations are interpreted
// recursively through the same machinery.
//
// ARCHITECTURE:
//
// One interpreter, two graph kinds:
// Replay runs against graph.Node, implemented by both the concrete and the
// approximate representation. Approximate replay (Approximate) builds a
// fresh graph of PatternMatch nodes seeded with example values and records
// a Step per path for the step debugger. Concrete replay (Execute,
// Evaluate) runs against a copy of a live graph and commits nothing on
// error.
//
// Per-action state machine:
//  1. Any defined input that does not resolve: Noinput
//  2. Otherwise any Undefined input: UnknownInput
//  3. Any condition whose query result does not match: QFalse
//  4. Otherwise BeginAction, run, EndAction: Run
//
// Outputs of an action are collected in the call frame pushed by
// BeginAction. EndAction re-keys them into the parent frame, so an output
// produced n calls deep carries an n+1 segment key.
//
// CRITICAL PATTERNS:
//
// Depth guard:
// Every operation call enters the depth guard before running. Exceeding
// MaxDepth (default 100) fails with MAX_DEPTH_EXCEEDED and aborts the whole
// replay. This is the only way a self-recursive operation terminates
// without a base case.
//
// Deterministic replay:
// Actions run in declaration order, conditions in declaration order,
// pattern seeding in declaration order. No maps are iterated where order
// is observable. Replaying the same program twice yields identical graphs
// and identical traces.
package engine
