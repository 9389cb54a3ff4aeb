package ir

import (
	"fmt"
	"maps"
	"slices"
)

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Resolver looks up operations by id. The catalog implements it.
type Resolver interface {
	Lookup(id OperationID) (*Operation, bool)
}

// Validate checks an operation definition against a resolver.
// Returns all errors (not fail-fast) for better developer experience.
//
// Rules:
//   - inputs and pattern neighbours name declared patterns
//   - action ids are unique
//   - every called operation resolves and receives one descriptor per input
//   - descriptors reference declared patterns and well-formed output keys
//   - builtins with HasOutput have an output name registered for the action
//   - conditions reference declared query applications
func (op *Operation) Validate(r Resolver) []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if op.ID == "" {
		add("id", "operation id is required")
	}
	for i, in := range op.Inputs {
		if _, ok := op.Patterns[in]; !ok {
			add(fmt.Sprintf("inputs[%d]", i), "unknown pattern %q", in)
		}
	}
	for _, id := range slices.Sorted(maps.Keys(op.Patterns)) {
		p := op.Patterns[id]
		for _, n := range p.Incoming {
			if _, ok := op.Patterns[n]; !ok {
				add(fmt.Sprintf("patterns.%s.incoming", id), "unknown pattern %q", n)
			}
		}
		for _, n := range p.Outgoing {
			if _, ok := op.Patterns[n]; !ok {
				add(fmt.Sprintf("patterns.%s.outgoing", id), "unknown pattern %q", n)
			}
		}
	}

	ds := op.DemoSemantics
	if ds == nil {
		return errs
	}

	checkInputs := func(field string, callee OperationID, inputs []Descriptor) {
		target, ok := r.Lookup(callee)
		if !ok {
			add(field, "unknown operation %q", callee)
			return
		}
		if len(inputs) != len(target.Inputs) {
			add(field, "operation %q takes %d inputs, got %d", callee, len(target.Inputs), len(inputs))
		}
		for j, d := range inputs {
			f := fmt.Sprintf("%s.inputs[%d]", field, j)
			switch d.Kind {
			case KindPatternMatch:
				if _, ok := op.Patterns[d.Pattern]; !ok {
					add(f, "unknown pattern %q", d.Pattern)
				}
			case KindOperationOutput:
				if err := d.Output.Validate(); err != nil {
					add(f, "%v", err)
				}
			case KindLiteral, KindUndefined, "":
			default:
				add(f, "unknown descriptor type %q", d.Kind)
			}
		}
	}

	seen := make(map[ActionID]bool, len(ds.Actions))
	for i, a := range ds.Actions {
		field := fmt.Sprintf("actions[%d]", i)
		if a.ID == "" {
			add(field+".id", "action id is required")
		} else if seen[a.ID] {
			add(field+".id", "duplicate action id %q", a.ID)
		}
		seen[a.ID] = true

		checkInputs(field, a.Operation, a.Inputs)
		if target, ok := r.Lookup(a.Operation); ok && target.IsBuiltin() && target.HasOutput {
			if ds.OutputNames[a.ID] == "" {
				add(field, "operation %q produces an output but action %q has no output name", a.Operation, a.ID)
			}
		}
		for j, c := range a.Conditions {
			if _, ok := ds.QueryApplications[c.QueryApp]; !ok {
				add(fmt.Sprintf("%s.conditions[%d]", field, j), "unknown query application %q", c.QueryApp)
			}
		}
	}
	for _, id := range slices.Sorted(maps.Keys(ds.QueryApplications)) {
		qa := ds.QueryApplications[id]
		checkInputs(fmt.Sprintf("query_applications.%s", id), qa.Query, qa.Inputs)
	}
	return errs
}
