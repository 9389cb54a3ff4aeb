package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
)

// valueComparer lets go-cmp compare ir.Value, whose fields are unexported.
var valueComparer = cmp.Comparer(func(a, b ir.Value) bool { return a == b })

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Paths    []ir.Path // Recorded paths, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Paths) > 0 {
		parts := make([]string, len(e.Paths))
		for i, p := range e.Paths {
			parts[i] = string(p)
		}
		fmt.Fprintf(&buf, "  Recorded paths: %s\n", strings.Join(parts, ", "))
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertOutcome:
		return assertOutcome(result, a)
	case AssertOutcomeCount:
		return assertOutcomeCount(result, a)
	case AssertNodeValue:
		return assertNodeValue(result, a)
	case AssertQueryResult:
		return assertQueryResult(result, a)
	case AssertFinalValue:
		return assertFinalValue(result, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func (a Assertion) step(result *Result) (engine.Step, error) {
	s, ok := result.Trace.Step(a.Path)
	if !ok {
		return engine.Step{}, &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("a step at path %s", a.Path),
			Actual:   "path not reached",
			Paths:    reachedPaths(result),
		}
	}
	return s, nil
}

func assertOutcome(result *Result, a Assertion) error {
	s, err := a.step(result)
	if err != nil {
		return err
	}
	if s.Outcome != a.Outcome {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s at %s", a.Outcome, a.Path),
			Actual:   string(s.Outcome),
		}
	}
	return nil
}

func assertOutcomeCount(result *Result, a Assertion) error {
	count := 0
	for _, o := range result.Outcomes() {
		if o == a.Outcome {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d steps with outcome %s", a.Count, a.Outcome),
			Actual:   fmt.Sprintf("%d steps", count),
		}
	}
	return nil
}

func assertNodeValue(result *Result, a Assertion) error {
	s, err := a.step(result)
	if err != nil {
		return err
	}
	for _, n := range s.Graph.Nodes {
		if n.AbstractNode == nil || n.AbstractNode.Key() != a.Node {
			continue
		}
		if !cmp.Equal(*a.Value, n.Value, valueComparer) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s = %s at %s", a.Node, a.Value, a.Path),
				Actual:   n.Value.String(),
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("node %s at %s", a.Node, a.Path),
		Actual:   "node not in graph",
	}
}

func assertQueryResult(result *Result, a Assertion) error {
	s, err := a.step(result)
	if err != nil {
		return err
	}
	held, ok := s.Graph.QueryResults[a.QueryApp]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("query application %s guarding %s", a.QueryApp, a.Path),
			Actual:   "no such condition",
		}
	}
	got := HeldUnevaluated
	if held != nil {
		got = fmt.Sprint(*held)
	}
	if got != a.Held {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s %s at %s", a.QueryApp, a.Held, a.Path),
			Actual:   got,
		}
	}
	return nil
}

func assertFinalValue(result *Result, a Assertion) error {
	if result.Graph == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("node %s after execution", a.Node),
			Actual:   "no execution result",
		}
	}
	n, ok := result.Graph.Nodes[a.Node]
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("node %s after execution", a.Node),
			Actual:   "node not in graph",
		}
	}
	if diff := cmp.Diff(*a.Value, n.Value, valueComparer); diff != "" {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("node %s = %s", a.Node, a.Value),
			Actual:   fmt.Sprintf("%s (-want +got):\n%s", n.Value, diff),
		}
	}
	return nil
}
