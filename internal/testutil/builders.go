package testutil

import (
	"github.com/roach88/algot/internal/ir"
)

// OperationBuilder assembles user-defined operations for tests.
//
//	op := testutil.Op("grow").
//		Inputs("a").
//		Action("0", "addChild", ir.PatternMatch("a")).Output("0", "A").
//		Build()
type OperationBuilder struct {
	op *ir.Operation
}

// Op starts a user-defined operation with empty semantics.
func Op(id ir.OperationID) *OperationBuilder {
	return &OperationBuilder{op: &ir.Operation{
		ID:       id,
		Patterns: make(map[ir.PatternID]ir.Pattern),
		DemoSemantics: &ir.DemoSemantics{
			Actions:           []ir.Action{},
			QueryApplications: make(map[ir.QueryAppID]ir.QueryApplication),
			OutputNames:       make(map[ir.ActionID]string),
		},
	}}
}

// Query marks the operation as a query.
func (b *OperationBuilder) Query() *OperationBuilder {
	b.op.IsQuery = true
	return b
}

// Inputs declares input patterns, creating them if needed.
func (b *OperationBuilder) Inputs(ids ...ir.PatternID) *OperationBuilder {
	for _, id := range ids {
		b.pattern(id)
		b.op.Inputs = append(b.op.Inputs, id)
	}
	return b
}

// Edge declares a pattern edge from -> to, creating both patterns if needed.
func (b *OperationBuilder) Edge(from, to ir.PatternID) *OperationBuilder {
	f := b.pattern(from)
	t := b.pattern(to)
	f.Outgoing = append(f.Outgoing, to)
	t.Incoming = append(t.Incoming, from)
	b.op.Patterns[from] = f
	b.op.Patterns[to] = t
	return b
}

// Required marks a pattern as required.
func (b *OperationBuilder) Required(id ir.PatternID) *OperationBuilder {
	p := b.pattern(id)
	p.Required = true
	b.op.Patterns[id] = p
	return b
}

// Action appends an action.
func (b *OperationBuilder) Action(id ir.ActionID, op ir.OperationID, inputs ...ir.Descriptor) *OperationBuilder {
	if inputs == nil {
		inputs = []ir.Descriptor{}
	}
	b.op.DemoSemantics.Actions = append(b.op.DemoSemantics.Actions, ir.Action{ID: id, Operation: op, Inputs: inputs})
	return b
}

// When guards the most recently added action.
func (b *OperationBuilder) When(qa ir.QueryAppID, result ir.Expectation) *OperationBuilder {
	actions := b.op.DemoSemantics.Actions
	last := &actions[len(actions)-1]
	last.Conditions = append(last.Conditions, ir.ActionCondition{QueryApp: qa, Result: result})
	return b
}

// Output registers the output name of an action.
func (b *OperationBuilder) Output(action ir.ActionID, name string) *OperationBuilder {
	b.op.DemoSemantics.OutputNames[action] = name
	return b
}

// QueryApp adds a query application.
func (b *OperationBuilder) QueryApp(id ir.QueryAppID, query ir.OperationID, inputs ...ir.Descriptor) *OperationBuilder {
	b.op.DemoSemantics.QueryApplications[id] = ir.QueryApplication{ID: id, Query: query, Inputs: inputs}
	return b
}

// Build normalizes and returns the operation.
func (b *OperationBuilder) Build() *ir.Operation {
	b.op.Normalize()
	return b.op
}

func (b *OperationBuilder) pattern(id ir.PatternID) ir.Pattern {
	p, ok := b.op.Patterns[id]
	if !ok {
		p = ir.Pattern{ID: id, Name: string(id)}
		b.op.Patterns[id] = p
	}
	return p
}

// Out is shorthand for an OperationOutput descriptor.
func Out(key string) ir.Descriptor {
	return ir.OperationOutput(ir.OutputKey(key))
}

// Pat is shorthand for a PatternMatch descriptor.
func Pat(id ir.PatternID) ir.Descriptor {
	return ir.PatternMatch(id)
}

// Num is shorthand for a numeric Literal descriptor.
func Num(f float64) ir.Descriptor {
	return ir.Literal(ir.Number(f))
}
