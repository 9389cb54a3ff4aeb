package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Value is the scalar carried by a graph node: a number or a string.
// The zero Value is the number 0.
//
// Values encode as bare JSON/YAML scalars: 3, 1.5, "abc".
type Value struct {
	str      string
	num      float64
	isString bool
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{num: f}
}

// StringValue returns a string value.
func StringValue(s string) Value {
	return Value{str: s, isString: true}
}

// IsString reports whether the value holds a string.
func (v Value) IsString() bool {
	return v.isString
}

// IsZero reports whether v is the number 0. Used by yaml omitempty.
func (v Value) IsZero() bool {
	return !v.isString && v.num == 0
}

// Float returns the numeric payload (0 for strings).
func (v Value) Float() float64 {
	return v.num
}

// Str returns the string payload ("" for numbers).
func (v Value) Str() string {
	return v.str
}

// AsNumber coerces the value to a number. Strings are parsed as floats;
// an unparsable string fails with a NUMBER_TYPE RuntimeError.
func (v Value) AsNumber() (float64, error) {
	if !v.isString {
		return v.num, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
	if err != nil || math.IsNaN(f) {
		return 0, NewNumberTypeError(v)
	}
	return f, nil
}

func (v Value) String() string {
	if v.isString {
		return strconv.Quote(v.str)
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// MarshalJSON encodes the value as a bare scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isString {
		return json.Marshal(v.str)
	}
	return json.Marshal(v.num)
}

// UnmarshalJSON accepts a JSON number or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("value: expected number or string, got %s", trimmed)
	}
	*v = Number(f)
	return nil
}

// MarshalYAML encodes the value as a bare scalar.
func (v Value) MarshalYAML() (any, error) {
	if v.isString {
		return v.str, nil
	}
	return v.num, nil
}

// UnmarshalYAML accepts a YAML int, float or string scalar.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: value must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = Number(f)
	default:
		*v = StringValue(node.Value)
	}
	return nil
}

// ComparisonOperator is a relation returned by comparison queries.
type ComparisonOperator string

const (
	OpEqual        ComparisonOperator = "=="
	OpNotEqual     ComparisonOperator = "!="
	OpLess         ComparisonOperator = "<"
	OpLessEqual    ComparisonOperator = "<="
	OpGreater      ComparisonOperator = ">"
	OpGreaterEqual ComparisonOperator = ">="
)

// ComparisonOperators lists every operator in display order.
var ComparisonOperators = []ComparisonOperator{
	OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual,
}

// IsValid reports whether op is a known operator.
func (op ComparisonOperator) IsValid() bool {
	return slices.Contains(ComparisonOperators, op)
}

// Compare returns every operator that holds between a and b.
func Compare(a, b float64) []ComparisonOperator {
	var ops []ComparisonOperator
	for _, op := range ComparisonOperators {
		var holds bool
		switch op {
		case OpEqual:
			holds = a == b
		case OpNotEqual:
			holds = a != b
		case OpLess:
			holds = a < b
		case OpLessEqual:
			holds = a <= b
		case OpGreater:
			holds = a > b
		case OpGreaterEqual:
			holds = a >= b
		}
		if holds {
			ops = append(ops, op)
		}
	}
	return ops
}

type resultKind uint8

const (
	resultNone resultKind = iota
	resultBool
	resultOperators
)

// QueryResult is what a builtin returns from Perform: nothing, a boolean,
// or the set of comparison operators that hold.
type QueryResult struct {
	kind resultKind
	b    bool
	ops  []ComparisonOperator
}

// NoResult is returned by builtins that produce no query result.
func NoResult() QueryResult {
	return QueryResult{}
}

// BoolResult wraps a boolean query result.
func BoolResult(b bool) QueryResult {
	return QueryResult{kind: resultBool, b: b}
}

// OperatorResult wraps a comparison-operator query result.
func OperatorResult(ops ...ComparisonOperator) QueryResult {
	return QueryResult{kind: resultOperators, ops: ops}
}

// IsNone reports whether the builtin produced no result.
func (r QueryResult) IsNone() bool {
	return r.kind == resultNone
}

// Bool returns the boolean payload and whether the result is boolean.
func (r QueryResult) Bool() (bool, bool) {
	return r.b, r.kind == resultBool
}

// Operators returns the operator payload.
func (r QueryResult) Operators() []ComparisonOperator {
	return r.ops
}

// Satisfies reports whether the result matches an expectation: boolean
// equality for boolean results, set membership for operator results.
// A missing result satisfies nothing.
func (r QueryResult) Satisfies(e Expectation) bool {
	switch r.kind {
	case resultBool:
		return e.Operator == "" && e.Bool == r.b
	case resultOperators:
		return e.Operator != "" && slices.Contains(r.ops, e.Operator)
	default:
		return false
	}
}

// Expectation is the declared result of an ActionCondition: a boolean, or
// a comparison operator when Operator is set.
type Expectation struct {
	Operator ComparisonOperator
	Bool     bool
}

// ExpectBool returns a boolean expectation.
func ExpectBool(b bool) Expectation {
	return Expectation{Bool: b}
}

// ExpectOperator returns a comparison-operator expectation.
func ExpectOperator(op ComparisonOperator) Expectation {
	return Expectation{Operator: op}
}

func (e Expectation) String() string {
	if e.Operator != "" {
		return string(e.Operator)
	}
	return strconv.FormatBool(e.Bool)
}

// MarshalJSON encodes the expectation as a JSON bool or operator string.
func (e Expectation) MarshalJSON() ([]byte, error) {
	if e.Operator != "" {
		return json.Marshal(string(e.Operator))
	}
	return json.Marshal(e.Bool)
}

// UnmarshalJSON accepts a JSON bool or operator string.
func (e *Expectation) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*e = ExpectBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("condition result: expected bool or operator, got %s", string(data))
	}
	return e.setOperator(s)
}

// MarshalYAML encodes the expectation as a YAML bool or operator string.
func (e Expectation) MarshalYAML() (any, error) {
	if e.Operator != "" {
		return string(e.Operator), nil
	}
	return e.Bool, nil
}

// UnmarshalYAML accepts a YAML bool or operator string.
func (e *Expectation) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: condition result must be a scalar", node.Line)
	}
	if node.ShortTag() == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*e = ExpectBool(b)
		return nil
	}
	if err := e.setOperator(node.Value); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

func (e *Expectation) setOperator(s string) error {
	op := ComparisonOperator(s)
	if !op.IsValid() {
		return fmt.Errorf("unknown comparison operator %q", s)
	}
	*e = ExpectOperator(op)
	return nil
}
