package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
)

// Scenario defines one replay scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path of the program file, relative to the scenario.
	Program string `yaml:"program"`

	// Operation is the user-defined operation to replay.
	Operation ir.OperationID `yaml:"operation"`

	// MaxDepth overrides the engine depth limit when positive.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// ExampleValues override the program's example values for Operation.
	ExampleValues map[ir.PatternID]ir.Value `yaml:"example_values,omitempty"`

	// Execute requests a concrete replay against the program graph.
	Execute *Execution `yaml:"execute,omitempty"`

	Expect Expectation `yaml:"expect"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Execution lists the arguments of a concrete replay.
type Execution struct {
	Args []ArgumentSpec `yaml:"args"`
}

// ArgumentSpec is one concrete argument: an existing node id or a literal.
type ArgumentSpec struct {
	Node    string    `yaml:"node,omitempty"`
	Literal *ir.Value `yaml:"literal,omitempty"`
}

// Argument converts a into an engine argument.
func (a ArgumentSpec) Argument() engine.Argument {
	if a.Literal != nil {
		return engine.LiteralArg(*a.Literal)
	}
	return engine.NodeArg(a.Node)
}

// Expectation is checked after the approximation.
type Expectation struct {
	// Outcomes maps paths to their expected outcome. Paths not listed are
	// not checked.
	Outcomes map[ir.Path]engine.Outcome `yaml:"outcomes,omitempty"`

	// Error is the expected user message of an aborting error. Empty means
	// the approximation must succeed.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the concrete result.
type Assertion struct {
	Type     string         `yaml:"type"`
	Path     ir.Path        `yaml:"path,omitempty"`
	Outcome  engine.Outcome `yaml:"outcome,omitempty"`
	Count    int            `yaml:"count,omitempty"`
	Node     string         `yaml:"node,omitempty"`
	Value    *ir.Value      `yaml:"value,omitempty"`
	QueryApp ir.QueryAppID  `yaml:"query_app,omitempty"`
	Held     string         `yaml:"held,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcome      = "outcome"
	AssertOutcomeCount = "outcome_count"
	AssertNodeValue    = "node_value"
	AssertQueryResult  = "query_result"
	AssertFinalValue   = "final_value"
)

// Values of Assertion.Held.
const (
	HeldTrue        = "true"
	HeldFalse       = "false"
	HeldUnevaluated = "unevaluated"
)

var knownOutcomes = map[engine.Outcome]bool{
	engine.OutcomeRun:          true,
	engine.OutcomeQFalse:       true,
	engine.OutcomeNoinput:      true,
	engine.OutcomeUnknownInput: true,
	engine.OutcomeNoop:         true,
}

// LoadScenario reads and parses a scenario YAML file. The program path is
// resolved relative to the scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return fmt.Errorf("program file not found: %s", s.Program)
	}
	if s.Operation == "" {
		return fmt.Errorf("operation is required")
	}
	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}
	if s.Execute != nil {
		for i, a := range s.Execute.Args {
			if (a.Node == "") == (a.Literal == nil) {
				return fmt.Errorf("execute.args[%d]: exactly one of node or literal is required", i)
			}
		}
	}
	for p, o := range s.Expect.Outcomes {
		if !knownOutcomes[o] {
			return fmt.Errorf("expect.outcomes[%s]: unknown outcome %q", p, o)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, s.Execute != nil); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, executes bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutcome:
		if a.Path == "" || !knownOutcomes[a.Outcome] {
			return fmt.Errorf("assertions[%d]: path and a known outcome are required for outcome", index)
		}
	case AssertOutcomeCount:
		if !knownOutcomes[a.Outcome] {
			return fmt.Errorf("assertions[%d]: a known outcome is required for outcome_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for outcome_count", index)
		}
	case AssertNodeValue:
		if a.Path == "" || a.Node == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: path, node and value are required for node_value", index)
		}
	case AssertQueryResult:
		if a.Path == "" || a.QueryApp == "" {
			return fmt.Errorf("assertions[%d]: path and query_app are required for query_result", index)
		}
		switch a.Held {
		case HeldTrue, HeldFalse, HeldUnevaluated:
		default:
			return fmt.Errorf("assertions[%d]: held must be true, false or unevaluated", index)
		}
	case AssertFinalValue:
		if !executes {
			return fmt.Errorf("assertions[%d]: final_value needs an execute section", index)
		}
		if a.Node == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: node and value are required for final_value", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
