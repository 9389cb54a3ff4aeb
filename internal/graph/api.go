package graph

import (
	"maps"
	"slices"

	"github.com/roach88/algot/internal/ir"
)

// backend is implemented by the concrete and approximate representations.
type backend interface {
	newNode(v ir.Value, temporary bool, key ir.OutputKey) Node
	snapshot() Snapshot
}

// Frame is one entry of the call-frame stack. It collects the output nodes
// produced while its action (and everything the action calls) executes.
type Frame struct {
	ActionID    ir.ActionID
	OutputNames map[ir.ActionID]string
	Outputs     map[ir.OutputKey]Node
}

// API is the representation-independent part of a graph under replay.
type API struct {
	b           backend
	frames      []*Frame
	temporaries [][]Node
	listeners   []RemovalListener
	queryResult bool
}

// MakeNode creates a plain node. It belongs to no frame and no
// temporary scope.
func (a *API) MakeNode(v ir.Value) Node {
	return a.b.newNode(v, false, "")
}

// MakeOutputNode creates a node that becomes an output of the current
// action.
//
// With an active frame the node is keyed
// frame.ActionID + "." + OutputNames[frame.ActionID]; a missing output name
// is an invariant violation. Without a frame the node is anonymous.
func (a *API) MakeOutputNode(v ir.Value) (Node, error) {
	frame := a.CurrentFrame()
	if frame == nil {
		return a.b.newNode(v, false, ""), nil
	}
	name, ok := frame.OutputNames[frame.ActionID]
	if !ok || name == "" {
		return nil, ir.NewInvariantError("no output name registered for action %q", frame.ActionID)
	}
	key := ir.NewOutputKey(frame.ActionID, name)
	n := a.b.newNode(v, false, key)
	frame.Outputs[key] = n
	return n, nil
}

// MakeTemporaryNode creates a node in the innermost temporary scope.
// It is removed by the matching DeleteTemporary unless promoted.
// Without an open scope the node is permanent.
func (a *API) MakeTemporaryNode(v ir.Value) Node {
	n := a.b.newNode(v, true, "")
	if k := len(a.temporaries); k > 0 {
		a.temporaries[k-1] = append(a.temporaries[k-1], n)
	}
	return n
}

// BeginAction pushes a call frame for the action.
func (a *API) BeginAction(id ir.ActionID, outputNames map[ir.ActionID]string) {
	a.frames = append(a.frames, &Frame{
		ActionID:    id,
		OutputNames: outputNames,
		Outputs:     make(map[ir.OutputKey]Node),
	})
}

// EndAction pops the current frame and returns its outputs.
//
// Each output is re-keyed into the parent frame (if any) as
// parent.ActionID + "." + key, so that after the outermost EndAction every
// key is the full ActionId stack from the top-level action down to the
// producing action.
func (a *API) EndAction() (map[ir.OutputKey]Node, error) {
	k := len(a.frames)
	if k == 0 {
		return nil, ir.NewInvariantError("EndAction without matching BeginAction")
	}
	frame := a.frames[k-1]
	a.frames = a.frames[:k-1]

	if parent := a.CurrentFrame(); parent != nil {
		for _, key := range slices.Sorted(maps.Keys(frame.Outputs)) {
			n := frame.Outputs[key]
			rekeyed := key.Prefixed(parent.ActionID)
			parent.Outputs[rekeyed] = n
			n.setOutputKey(rekeyed)
		}
	}
	return frame.Outputs, nil
}

// CurrentFrame returns the innermost frame, or nil at top level.
func (a *API) CurrentFrame() *Frame {
	if len(a.frames) == 0 {
		return nil
	}
	return a.frames[len(a.frames)-1]
}

// BeginTemporary opens a temporary scope.
func (a *API) BeginTemporary() {
	a.temporaries = append(a.temporaries, nil)
}

// DeleteTemporary closes the innermost temporary scope, removing every
// node created in it that was neither promoted nor already removed.
func (a *API) DeleteTemporary() {
	k := len(a.temporaries)
	if k == 0 {
		return
	}
	scope := a.temporaries[k-1]
	a.temporaries = a.temporaries[:k-1]
	for _, n := range scope {
		if !n.Removed() {
			n.Remove()
		}
	}
}

// Promote moves n out of its temporary scope so it survives DeleteTemporary.
// Reports whether n was found.
func (a *API) Promote(n Node) bool {
	for i := len(a.temporaries) - 1; i >= 0; i-- {
		if j := slices.Index(a.temporaries[i], n); j >= 0 {
			a.temporaries[i] = slices.Delete(a.temporaries[i], j, j+1)
			return true
		}
	}
	return false
}

// WithRemovalListener runs fn with l subscribed to node removals.
// The listener is unsubscribed on every exit path.
func (a *API) WithRemovalListener(l RemovalListener, fn func() error) error {
	a.listeners = append(a.listeners, l)
	defer func() {
		a.listeners = a.listeners[:len(a.listeners)-1]
	}()
	return fn()
}

func (a *API) notifyRemoved(n Node) {
	for _, l := range slices.Clone(a.listeners) {
		l(n)
	}
}

// QueryResult returns the custom query result set by SetQueryResult.
func (a *API) QueryResult() bool {
	return a.queryResult
}

// SetQueryResult records the result of a user-defined query.
func (a *API) SetQueryResult(b bool) {
	a.queryResult = b
}

// TakeQueryResult returns the custom query result and resets it to false.
func (a *API) TakeQueryResult() bool {
	b := a.queryResult
	a.queryResult = false
	return b
}

// Snapshot serializes the current graph state.
func (a *API) Snapshot() Snapshot {
	s := a.b.snapshot()
	s.CustomQueryResult = a.queryResult
	return s
}
