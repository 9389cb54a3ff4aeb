// Package graph implements the two graph representations the interpreter
// replays against.
//
// A ConcreteGraph holds runtime data: nodes identified by generated ids.
// An approximate graph is built fresh for every recomputation during
// recording; its nodes are identified by ir.Descriptor values ("the thing
// produced at step 3") rather than ids.
//
// Both representations implement Node and share API, which carries the
// state the interpreter needs regardless of representation:
//   - the call-frame stack (BeginAction/EndAction) collecting output nodes
//   - scoped temporaries (BeginTemporary/DeleteTemporary)
//   - scoped removal listeners (WithRemovalListener)
//   - the custom query result written by user-defined queries
//
// API values are single-owner and not safe for concurrent use.
package graph
