package catalog

import (
	"fmt"

	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// builtin describes one standard primitive.
type builtin struct {
	id        ir.OperationID
	name      string
	inputs    []ir.PatternID
	isQuery   bool
	hasOutput bool
	perform   PerformFunc
}

func (b builtin) operation() *ir.Operation {
	op := &ir.Operation{
		ID:        b.id,
		Name:      b.name,
		Inputs:    b.inputs,
		Patterns:  make(map[ir.PatternID]ir.Pattern, len(b.inputs)),
		IsQuery:   b.isQuery,
		HasOutput: b.hasOutput,
	}
	for _, p := range b.inputs {
		op.Patterns[p] = ir.Pattern{ID: p, Name: string(p)}
	}
	return op
}

var (
	unary  = []ir.PatternID{"a"}
	binary = []ir.PatternID{"a", "b"}
)

// standardBuiltins is the primitive set offered by the recording editor.
var standardBuiltins = []builtin{
	{id: "newNode", name: "New Node", hasOutput: true, perform: newNode},
	{id: "addChild", name: "Add Child", inputs: unary, hasOutput: true, perform: addChild},
	{id: "increment", name: "Increment", inputs: unary, perform: addToValue(1)},
	{id: "decrement", name: "Decrement", inputs: unary, perform: addToValue(-1)},
	{id: "setValue", name: "Set Value", inputs: binary, perform: setValue},
	{id: "copyValue", name: "Copy Value", inputs: binary, perform: copyValue},
	{id: "swapValue", name: "Swap Values", inputs: binary, perform: swapValue},
	{id: "sum", name: "Sum", inputs: binary, hasOutput: true, perform: sum},
	{id: "addEdgeTo", name: "Add Edge", inputs: binary, perform: addEdgeTo},
	{id: "removeEdges", name: "Remove Edges", inputs: unary, perform: removeEdges},
	{id: "removeNode", name: "Remove Node", inputs: unary, perform: removeNode},
	{id: "setQueryResultToTrue", name: "Return True", perform: setQueryResult(true)},
	{id: "setQueryResultToFalse", name: "Return False", perform: setQueryResult(false)},
	{id: "isZero", name: "Is Zero", inputs: unary, isQuery: true, perform: isZero},
	{id: "isPositive", name: "Is Positive", inputs: unary, isQuery: true, perform: isPositive},
	{id: "hasOutgoing", name: "Has Outgoing", inputs: unary, isQuery: true, perform: hasOutgoing},
	{id: "hasEdgeTo", name: "Has Edge To", inputs: binary, isQuery: true, perform: hasEdgeTo},
	{id: "equalNumber", name: "Equal", inputs: binary, isQuery: true, perform: equalNumber},
	{id: "isLessThan", name: "Less Than", inputs: binary, isQuery: true, perform: isLessThan},
	{id: "isSame", name: "Is Same", inputs: binary, isQuery: true, perform: isSame},
	{id: "compareNumbers", name: "Compare", inputs: binary, isQuery: true, perform: compareNumbers},
}

// Standard returns a catalog holding the standard builtins.
func Standard() *Catalog {
	c := New()
	for _, b := range standardBuiltins {
		if err := c.RegisterBuiltin(b.operation(), b.perform); err != nil {
			panic(fmt.Sprintf("catalog: %v", err))
		}
	}
	return c
}

func newNode(_ []graph.Node, api API) (ir.QueryResult, error) {
	_, err := api.MakeNode(ir.Number(0))
	return ir.NoResult(), err
}

func addChild(nodes []graph.Node, api API) (ir.QueryResult, error) {
	child, err := api.MakeNode(ir.Number(0))
	if err != nil {
		return ir.NoResult(), err
	}
	return ir.NoResult(), nodes[0].AddEdgeTo(child)
}

func addToValue(delta float64) PerformFunc {
	return func(nodes []graph.Node, _ API) (ir.QueryResult, error) {
		n, err := nodes[0].Number()
		if err != nil {
			return ir.NoResult(), err
		}
		nodes[0].SetValue(ir.Number(n + delta))
		return ir.NoResult(), nil
	}
}

// setValue assigns b's value to a.
func setValue(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	nodes[0].SetValue(nodes[1].Value())
	return ir.NoResult(), nil
}

// copyValue assigns a's value to b.
func copyValue(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	nodes[1].SetValue(nodes[0].Value())
	return ir.NoResult(), nil
}

func swapValue(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	a, b := nodes[0].Value(), nodes[1].Value()
	nodes[0].SetValue(b)
	nodes[1].SetValue(a)
	return ir.NoResult(), nil
}

func sum(nodes []graph.Node, api API) (ir.QueryResult, error) {
	a, b, err := numbers(nodes)
	if err != nil {
		return ir.NoResult(), err
	}
	_, err = api.MakeNode(ir.Number(a + b))
	return ir.NoResult(), err
}

// addEdgeTo keeps both ends, so an edge to a literal survives the action.
func addEdgeTo(nodes []graph.Node, api API) (ir.QueryResult, error) {
	if err := nodes[0].AddEdgeTo(nodes[1]); err != nil {
		return ir.NoResult(), err
	}
	api.Keep(nodes[0])
	api.Keep(nodes[1])
	return ir.NoResult(), nil
}

func removeEdges(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	nodes[0].RemoveEdges()
	return ir.NoResult(), nil
}

func removeNode(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	nodes[0].Remove()
	return ir.NoResult(), nil
}

func setQueryResult(b bool) PerformFunc {
	return func(_ []graph.Node, api API) (ir.QueryResult, error) {
		api.SetQueryResult(b)
		return ir.NoResult(), nil
	}
}

func isZero(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	n, err := nodes[0].Number()
	return ir.BoolResult(err == nil && n == 0), err
}

func isPositive(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	n, err := nodes[0].Number()
	return ir.BoolResult(err == nil && n > 0), err
}

func hasOutgoing(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	return ir.BoolResult(len(nodes[0].Outgoing()) > 0), nil
}

func hasEdgeTo(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	return ir.BoolResult(nodes[0].HasEdgeTo(nodes[1])), nil
}

func equalNumber(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	a, b, err := numbers(nodes)
	return ir.BoolResult(err == nil && a == b), err
}

func isLessThan(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	a, b, err := numbers(nodes)
	return ir.BoolResult(err == nil && a < b), err
}

func isSame(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	return ir.BoolResult(nodes[0] == nodes[1]), nil
}

func compareNumbers(nodes []graph.Node, _ API) (ir.QueryResult, error) {
	a, b, err := numbers(nodes)
	if err != nil {
		return ir.NoResult(), err
	}
	return ir.OperatorResult(ir.Compare(a, b)...), nil
}

func numbers(nodes []graph.Node) (float64, float64, error) {
	a, err := nodes[0].Number()
	if err != nil {
		return 0, 0, err
	}
	b, err := nodes[1].Number()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
