package engine

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/algot/internal/catalog"
	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// DefaultMaxDepth is the default maximum operation call depth.
// The root operation runs at depth 0.
const DefaultMaxDepth = 100

// Engine replays operations resolved from a catalog.
//
// An Engine holds configuration only. Every replay builds its own graph,
// depth guard and trace, so one Engine may serve many replays in sequence.
type Engine struct {
	catalog  *catalog.Catalog
	maxDepth int
	ids      graph.IDGenerator
	logger   *slog.Logger
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithMaxDepth sets the call depth limit.
//
// Default: 100 (DefaultMaxDepth)
// Use WithMaxDepth(3) for testing the guard.
func WithMaxDepth(maxDepth int) Option {
	return func(e *Engine) {
		e.maxDepth = maxDepth
	}
}

// WithIDGenerator sets the id generator for nodes created by concrete
// replays. Default: graph.SequentialIDs.
func WithIDGenerator(gen graph.IDGenerator) Option {
	return func(e *Engine) {
		e.ids = gen
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine resolving operations from cat.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:  cat,
		maxDepth: DefaultMaxDepth,
		ids:      graph.SequentialIDs{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the catalog the engine resolves against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// MaxDepth returns the configured call depth limit.
func (e *Engine) MaxDepth() int {
	return e.maxDepth
}

// Approximation is the result of an approximate replay.
type Approximation struct {
	// Graph is the approximate graph after the replay.
	Graph *graph.ApproximateAPI

	// Trace holds one Step per reached path.
	Trace *Trace

	// Inputs are the PatternMatch nodes seeded for op.Inputs, in order.
	Inputs []*graph.ApproxNode
}

// Approximate replays op symbolically.
//
// One PatternMatch node is created per pattern (inputs first, in declared
// order, then the rest by id), valued with the pattern's example value or 0.
// Declared outgoing pattern edges become graph edges. The replay then
// records a Step for path "0" and every path reached below it.
//
// op itself is replayed as given; nested calls (including recursive calls
// to op.ID) are resolved through the catalog.
func (e *Engine) Approximate(op *ir.Operation, exampleValues map[ir.PatternID]ir.Value) (*Approximation, error) {
	api := graph.NewApproximateAPI()
	nodes := make(map[ir.PatternID]*graph.ApproxNode, len(op.Patterns))
	for _, id := range patternOrder(op) {
		nodes[id] = api.MakePatternNode(id, exampleValues[id])
	}
	for _, id := range patternOrder(op) {
		for _, target := range op.Patterns[id].Outgoing {
			t, ok := nodes[target]
			if !ok {
				return nil, ir.NewInvariantError("pattern %q: unknown outgoing pattern %q", id, target)
			}
			if err := nodes[id].AddEdgeTo(t); err != nil {
				return nil, err
			}
		}
	}

	inputs := make([]*graph.ApproxNode, len(op.Inputs))
	args := make([]graph.Node, len(op.Inputs))
	for i, id := range op.Inputs {
		n, ok := nodes[id]
		if !ok {
			return nil, ir.NewInvariantError("input %d: unknown pattern %q", i, id)
		}
		inputs[i] = n
		args[i] = n
	}

	r := e.newReplay(api.API, NewTrace())
	r.trace.record(ir.PathOf([]int{0}), Step{Graph: api.Snapshot(), Outcome: OutcomeNoop})

	if err := r.runEntry(catalog.Entry{Operation: op}, args, nil, true); err != nil {
		e.logger.Debug("approximation aborted", "operation", op.ID, "error", err)
		return nil, err
	}
	return &Approximation{Graph: api, Trace: r.trace, Inputs: inputs}, nil
}

// patternOrder lists inputs in declared order followed by the remaining
// patterns sorted by id.
func patternOrder(op *ir.Operation) []ir.PatternID {
	order := slices.Clone(op.Inputs)
	for _, id := range slices.Sorted(maps.Keys(op.Patterns)) {
		if !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	return order
}

// Argument is one actual argument of a concrete replay: an existing node
// or a literal value, which becomes a temporary node for the duration of
// the replay.
type Argument struct {
	NodeID  string
	Literal *ir.Value
}

// NodeArg refers to an existing node.
func NodeArg(id string) Argument {
	return Argument{NodeID: id}
}

// LiteralArg supplies a constant.
func LiteralArg(v ir.Value) Argument {
	return Argument{Literal: &v}
}

// Execute replays the operation against a copy of g and returns the
// resulting graph. On error, g itself is returned unchanged together with
// the error.
func (e *Engine) Execute(id ir.OperationID, g *graph.ConcreteGraph, args []Argument) (*graph.ConcreteGraph, error) {
	api := graph.NewConcreteAPI(g, graph.WithIDGenerator(e.ids))
	if err := e.concrete(api, id, args, func(r *replay, entry catalog.Entry, nodes []graph.Node) error {
		return r.runEntry(entry, nodes, nil, false)
	}); err != nil {
		e.logger.Debug("execution failed", "operation", id, "error", err)
		return g, err
	}
	return api.Graph(), nil
}

// Evaluate runs a query against a copy of g and returns its result.
// Builtin queries return their own result; other operations report the
// custom query result they set.
func (e *Engine) Evaluate(id ir.OperationID, g *graph.ConcreteGraph, args []Argument) (bool, error) {
	api := graph.NewConcreteAPI(g, graph.WithIDGenerator(e.ids))
	var result bool
	err := e.concrete(api, id, args, func(r *replay, entry catalog.Entry, nodes []graph.Node) error {
		res, err := r.query(entry, nodes)
		result = res.Satisfies(ir.ExpectBool(true))
		return err
	})
	return result, err
}

func (e *Engine) concrete(api *graph.ConcreteAPI, id ir.OperationID, args []Argument, run func(*replay, catalog.Entry, []graph.Node) error) error {
	entry, err := e.catalog.Resolve(id)
	if err != nil {
		return err
	}
	if len(args) != len(entry.Operation.Inputs) {
		return fmt.Errorf("operation %q takes %d arguments, got %d", id, len(entry.Operation.Inputs), len(args))
	}

	api.BeginTemporary()
	defer api.DeleteTemporary()

	nodes := make([]graph.Node, len(args))
	for i, arg := range args {
		if arg.Literal != nil {
			nodes[i] = api.MakeTemporaryNode(*arg.Literal)
			continue
		}
		n, ok := api.Node(arg.NodeID)
		if !ok {
			return fmt.Errorf("argument %d: node %q not found", i, arg.NodeID)
		}
		nodes[i] = n
	}
	return run(e.newReplay(api.API, nil), entry, nodes)
}

func (e *Engine) newReplay(api *graph.API, trace *Trace) *replay {
	return &replay{
		engine: e,
		api:    api,
		trace:  trace,
		guard:  NewDepthGuard(e.maxDepth),
	}
}
