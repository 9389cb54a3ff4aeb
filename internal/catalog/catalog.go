// Package catalog resolves operation ids to builtins or user-defined
// operations.
//
// A Catalog is an explicit value constructed once per session and passed to
// the engine, so independent sessions never share registry state.
package catalog

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// API is what a builtin may do besides touching its input nodes.
type API interface {
	// MakeNode creates a node; inside an action it becomes the action output.
	MakeNode(v ir.Value) (graph.Node, error)

	// SetQueryResult sets the custom query result read by user-defined queries.
	SetQueryResult(b bool)

	// Keep makes a temporary node outlive its scope. Other nodes are
	// unaffected.
	Keep(n graph.Node)
}

// PerformFunc is the body of a builtin. nodes holds one node per declared
// input, in input order.
type PerformFunc func(nodes []graph.Node, api API) (ir.QueryResult, error)

// Entry is a resolved operation. Perform is nil for user-defined operations.
type Entry struct {
	Operation *ir.Operation
	Perform   PerformFunc
}

// IsBuiltin reports whether the entry carries a builtin body.
func (e Entry) IsBuiltin() bool {
	return e.Perform != nil
}

// Catalog maps operation ids to builtins and user-defined operations.
// Builtins shadow user-defined operations with the same id.
type Catalog struct {
	builtins map[ir.OperationID]Entry
	user     map[ir.OperationID]*ir.Operation
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		builtins: make(map[ir.OperationID]Entry),
		user:     make(map[ir.OperationID]*ir.Operation),
	}
}

// RegisterBuiltin adds a builtin. The operation must not carry DemoSemantics.
func (c *Catalog) RegisterBuiltin(op *ir.Operation, perform PerformFunc) error {
	if op.DemoSemantics != nil {
		return fmt.Errorf("register builtin %q: builtins cannot carry demo semantics", op.ID)
	}
	if perform == nil {
		return fmt.Errorf("register builtin %q: nil perform", op.ID)
	}
	if _, exists := c.builtins[op.ID]; exists {
		return fmt.Errorf("register builtin %q: already registered", op.ID)
	}
	op.Normalize()
	c.builtins[op.ID] = Entry{Operation: op, Perform: perform}
	return nil
}

// Define adds or replaces a user-defined operation.
func (c *Catalog) Define(op *ir.Operation) error {
	if op.DemoSemantics == nil {
		return fmt.Errorf("define %q: user-defined operations need demo semantics", op.ID)
	}
	if _, builtin := c.builtins[op.ID]; builtin {
		return fmt.Errorf("define %q: id is taken by a builtin", op.ID)
	}
	op.Normalize()
	c.user[op.ID] = op
	return nil
}

// Resolve returns the entry for id.
func (c *Catalog) Resolve(id ir.OperationID) (Entry, error) {
	if e, ok := c.builtins[id]; ok {
		return e, nil
	}
	if op, ok := c.user[id]; ok {
		return Entry{Operation: op}, nil
	}
	return Entry{}, ir.NewUnknownOperationError(id)
}

// Lookup implements ir.Resolver.
func (c *Catalog) Lookup(id ir.OperationID) (*ir.Operation, bool) {
	e, err := c.Resolve(id)
	if err != nil {
		return nil, false
	}
	return e.Operation, true
}

// Builtins returns the builtin operations sorted by id.
func (c *Catalog) Builtins() []*ir.Operation {
	out := make([]*ir.Operation, 0, len(c.builtins))
	for _, id := range slices.Sorted(maps.Keys(c.builtins)) {
		out = append(out, c.builtins[id].Operation)
	}
	return out
}

// UserOperations returns the user-defined operations sorted by id.
func (c *Catalog) UserOperations() []*ir.Operation {
	out := make([]*ir.Operation, 0, len(c.user))
	for _, id := range slices.Sorted(maps.Keys(c.user)) {
		out = append(out, c.user[id])
	}
	return out
}
