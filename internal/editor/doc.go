// Package editor implements the recording session for one user-defined
// operation: structural edits with undo, the approximate replay that backs
// the step debugger, and cursor navigation over the replayed paths.
//
// # Consistency
//
// Every structural edit is applied in three phases:
//
//  1. checkpoint: all user-defined operations and the session state are
//     cloned onto the undo stack
//  2. mutate: the edit changes the operation in place
//  3. refresh: the operation is approximated again and the open paths,
//     approximations and pattern matches are recomputed
//
// If the mutation is rejected or the refresh fails, the checkpoint is
// popped and restored, so a failed edit leaves no trace. Replay-aborting
// errors (max depth, number type) additionally set the session's
// user-facing error string.
//
// # Addressing
//
// A cursor position is an action stack: the index of the action at each
// call level, e.g. [2 0 3]. Its string form is an ir.Path. Positions that
// must survive reorder (expanded actions) are stored as ActionId stacks
// instead. The end of the top-level operation is [len(actions)], whose
// ActionId stack is ["-1"].
package editor
