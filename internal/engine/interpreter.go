package engine

import (
	"maps"
	"slices"

	"github.com/roach88/algot/internal/catalog"
	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// replay is the state shared by every call level of one replay.
type replay struct {
	engine *Engine
	api    *graph.API
	trace  *Trace
	guard  *DepthGuard
}

// runOperation resolves id and runs it at path.
func (r *replay) runOperation(id ir.OperationID, nodes []graph.Node, path []int, record bool) error {
	entry, err := r.engine.catalog.Resolve(id)
	if err != nil {
		return annotate(err, id, path)
	}
	return r.runEntry(entry, nodes, path, record)
}

// runEntry runs one operation call.
//
// When recording at a non-root path, the step at path is marked Run with
// the graph as it was when the call started, and after the call the next
// sibling path is recorded as a Noop boundary.
func (r *replay) runEntry(entry catalog.Entry, nodes []graph.Node, path []int, record bool) error {
	op := entry.Operation
	if record && len(path) > 0 {
		r.trace.record(ir.PathOf(path), Step{
			Graph:      r.api.Snapshot(),
			Outcome:    OutcomeRun,
			Expandable: op.DemoSemantics != nil,
		})
	}

	if err := r.guard.Enter(op.ID); err != nil {
		r.guard.Exit()
		return annotate(err, op.ID, path)
	}
	defer r.guard.Exit()

	switch {
	case entry.IsBuiltin():
		if _, err := entry.Perform(nodes, builtinAPI{r.api}); err != nil {
			return annotate(err, op.ID, path)
		}
	case op.DemoSemantics != nil:
		bindings, err := Match(op, nodes)
		if err != nil {
			return annotate(err, op.ID, path)
		}
		in := &interpreter{
			replay:   r,
			op:       op,
			bindings: bindings,
			outputs:  make(map[ir.OutputKey]graph.Node),
			path:     path,
			record:   record,
		}
		if err := in.run(); err != nil {
			return err
		}
	default:
		return annotate(ir.NewInvariantError("operation %q has no semantics", op.ID), op.ID, path)
	}

	if record && len(path) > 0 {
		next := slices.Clone(path)
		next[len(next)-1]++
		r.trace.record(ir.PathOf(next), Step{Graph: r.api.Snapshot(), Outcome: OutcomeNoop})
	}
	return nil
}

// query evaluates entry as a query against nodes.
//
// Builtin queries return their own result. Any other operation is run
// (without recording) and the custom query result it set is read back and
// reset.
func (r *replay) query(entry catalog.Entry, nodes []graph.Node) (ir.QueryResult, error) {
	if entry.IsBuiltin() && entry.Operation.IsQuery {
		res, err := entry.Perform(nodes, builtinAPI{r.api})
		if err != nil {
			return ir.NoResult(), annotate(err, entry.Operation.ID, nil)
		}
		return res, nil
	}
	if err := r.runEntry(entry, nodes, nil, false); err != nil {
		return ir.NoResult(), err
	}
	return ir.BoolResult(r.api.TakeQueryResult()), nil
}

// interpreter replays one operation's DemoSemantics at one call level.
type interpreter struct {
	*replay
	op       *ir.Operation
	bindings Bindings
	outputs  map[ir.OutputKey]graph.Node
	path     []int
	record   bool
}

// run executes every action in order. Temporaries created while resolving
// Literal inputs live until run returns; nodes removed meanwhile are
// dropped from the bindings and outputs as they vanish.
func (in *interpreter) run() error {
	in.api.BeginTemporary()
	defer in.api.DeleteTemporary()

	return in.api.WithRemovalListener(in.forget, func() error {
		for i, action := range in.op.DemoSemantics.Actions {
			if err := in.execute(action, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (in *interpreter) forget(n graph.Node) {
	maps.DeleteFunc(in.outputs, func(_ ir.OutputKey, out graph.Node) bool { return out == n })
	for p, bound := range in.bindings {
		if bound == n {
			in.bindings[p] = nil
		}
	}
}

func (in *interpreter) execute(action ir.Action, idx int) error {
	path := append(slices.Clone(in.path), idx)
	p := ir.PathOf(path)
	if in.record {
		in.trace.record(p, Step{Graph: in.api.Snapshot(), Outcome: OutcomeNoop})
	}

	outcome, results, err := in.attempt(action, path)
	if err != nil {
		return err
	}
	in.engine.logger.Debug("action attempted",
		"operation", in.op.ID,
		"action", action.ID,
		"path", p,
		"outcome", outcome)

	if in.record {
		in.trace.update(p, func(s *Step) {
			if outcome != OutcomeRun {
				s.Outcome = outcome
			}
			s.Graph.QueryResults = results
		})
		next := slices.Clone(path)
		next[len(next)-1]++
		in.trace.record(ir.PathOf(next), Step{Graph: in.api.Snapshot(), Outcome: OutcomeNoop})
	}
	return nil
}

// attempt runs the per-action state machine. results maps each guarding
// query application to whether its condition held.
func (in *interpreter) attempt(action ir.Action, path []int) (Outcome, map[ir.QueryAppID]*bool, error) {
	results := make(map[ir.QueryAppID]*bool, len(action.Conditions))
	for _, c := range action.Conditions {
		results[c.QueryApp] = nil
	}

	// A missing node outranks an Undefined input.
	nodes := make([]graph.Node, len(action.Inputs))
	undefined := false
	for i, d := range action.Inputs {
		if d.IsUndefined() {
			undefined = true
			continue
		}
		if nodes[i] = in.resolve(d); nodes[i] == nil {
			return OutcomeNoinput, results, nil
		}
	}
	if undefined {
		return OutcomeUnknownInput, results, nil
	}

	fulfilled := true
	memo := make(map[ir.QueryAppID]ir.QueryResult, len(action.Conditions))
	for _, c := range action.Conditions {
		res, seen := memo[c.QueryApp]
		if !seen {
			var err error
			if res, err = in.evaluate(c.QueryApp, path); err != nil {
				return "", nil, err
			}
			memo[c.QueryApp] = res
		}
		held := res.Satisfies(c.Result)
		if prev := results[c.QueryApp]; prev != nil {
			held = held && *prev
		}
		results[c.QueryApp] = &held
		fulfilled = fulfilled && held
	}
	if !fulfilled {
		return OutcomeQFalse, results, nil
	}

	in.api.BeginAction(action.ID, in.op.DemoSemantics.OutputNames)
	if err := in.runOperation(action.Operation, nodes, path, in.record); err != nil {
		return "", nil, err
	}
	produced, err := in.api.EndAction()
	if err != nil {
		return "", nil, annotate(err, in.op.ID, path)
	}
	maps.Copy(in.outputs, produced)
	return OutcomeRun, results, nil
}

// evaluate computes one query application. An Undefined or unresolvable
// input makes the query false without running it.
func (in *interpreter) evaluate(id ir.QueryAppID, path []int) (ir.QueryResult, error) {
	qa, ok := in.op.DemoSemantics.QueryApplications[id]
	if !ok {
		return ir.NoResult(), annotate(ir.NewInvariantError("unknown query application %q", id), in.op.ID, path)
	}
	for _, d := range qa.Inputs {
		if d.IsUndefined() {
			return ir.BoolResult(false), nil
		}
	}
	nodes, ok := in.resolveAll(qa.Inputs)
	if !ok {
		return ir.BoolResult(false), nil
	}
	entry, err := in.engine.catalog.Resolve(qa.Query)
	if err != nil {
		return ir.NoResult(), annotate(err, in.op.ID, path)
	}
	return in.query(entry, nodes)
}

// resolveAll resolves descriptors to nodes; ok is false if any does not
// resolve.
func (in *interpreter) resolveAll(ds []ir.Descriptor) ([]graph.Node, bool) {
	nodes := make([]graph.Node, len(ds))
	ok := true
	for i, d := range ds {
		nodes[i] = in.resolve(d)
		if nodes[i] == nil {
			ok = false
		}
	}
	return nodes, ok
}

func (in *interpreter) resolve(d ir.Descriptor) graph.Node {
	switch d.Kind {
	case ir.KindPatternMatch:
		return in.bindings[d.Pattern]
	case ir.KindOperationOutput:
		return in.outputs[d.Output]
	case ir.KindLiteral:
		return in.api.MakeTemporaryNode(d.Value)
	default:
		return nil
	}
}

// builtinAPI adapts graph.API to the builtin contract: nodes made by a
// builtin are outputs of the current action.
type builtinAPI struct {
	api *graph.API
}

func (b builtinAPI) MakeNode(v ir.Value) (graph.Node, error) {
	return b.api.MakeOutputNode(v)
}

func (b builtinAPI) SetQueryResult(v bool) {
	b.api.SetQueryResult(v)
}

func (b builtinAPI) Keep(n graph.Node) {
	b.api.Promote(n)
}

// annotate attaches operation and path context to runtime errors that
// do not carry it yet.
func annotate(err error, id ir.OperationID, path []int) error {
	re, ok := ir.AsRuntimeError(err)
	if !ok {
		return err
	}
	if re.OperationID == "" {
		re.OperationID = id
	}
	if re.Path == "" && len(path) > 0 {
		re.Path = string(ir.PathOf(path))
	}
	return err
}
