package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// DescriptorKind tags the variants of Descriptor.
type DescriptorKind string

const (
	// KindPatternMatch binds to a formal input pattern.
	KindPatternMatch DescriptorKind = "PatternMatch"

	// KindOperationOutput refers to a node produced by an earlier action.
	KindOperationOutput DescriptorKind = "OperationOutput"

	// KindLiteral is a constant supplied at the call site.
	KindLiteral DescriptorKind = "Literal"

	// KindUndefined is an argument slot that is not bound yet.
	KindUndefined DescriptorKind = "Undefined"
)

// Descriptor is an AbstractNodeDescriptor: the symbolic identity of a node
// during recording and approximate replay.
//
// Exactly one payload field is meaningful, selected by Kind:
//   - KindPatternMatch: Pattern
//   - KindOperationOutput: Output
//   - KindLiteral: Value
//   - KindUndefined: none
type Descriptor struct {
	Kind    DescriptorKind `json:"type" yaml:"type"`
	Pattern PatternID      `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Output  OutputKey      `json:"id,omitempty" yaml:"id,omitempty"`
	Value   Value          `json:"value,omitzero" yaml:"value,omitempty"`
}

// PatternMatch returns a descriptor bound to the given pattern.
func PatternMatch(p PatternID) Descriptor {
	return Descriptor{Kind: KindPatternMatch, Pattern: p}
}

// OperationOutput returns a descriptor for the output with the given key.
func OperationOutput(key OutputKey) Descriptor {
	return Descriptor{Kind: KindOperationOutput, Output: key}
}

// Literal returns a constant descriptor.
func Literal(v Value) Descriptor {
	return Descriptor{Kind: KindLiteral, Value: v}
}

// Undefined returns the unbound descriptor.
func Undefined() Descriptor {
	return Descriptor{Kind: KindUndefined}
}

// IsUndefined reports whether the descriptor is the unbound slot.
// A zero Descriptor is treated as Undefined.
func (d Descriptor) IsUndefined() bool {
	return d.Kind == KindUndefined || d.Kind == ""
}

// Key returns a string that uniquely identifies the descriptor.
func (d Descriptor) Key() string {
	switch d.Kind {
	case KindPatternMatch:
		return "pattern:" + string(d.Pattern)
	case KindOperationOutput:
		return "output:" + string(d.Output)
	case KindLiteral:
		return "literal:" + d.Value.String()
	default:
		return "undefined"
	}
}

// Label returns a short human-readable name, resolving pattern names
// against op when it is non-nil.
func (d Descriptor) Label(op *Operation) string {
	switch d.Kind {
	case KindPatternMatch:
		if op != nil {
			if p, ok := op.Patterns[d.Pattern]; ok && p.Name != "" {
				return p.Name
			}
		}
		return string(d.Pattern)
	case KindOperationOutput:
		return d.Output.Name()
	case KindLiteral:
		return d.Value.String()
	default:
		return "?"
	}
}

func (d Descriptor) String() string {
	return d.Key()
}

// OutputKey is a dot-joined ActionId stack ending in an output name,
// e.g. "3.A" or "7.2.B".
type OutputKey string

// NewOutputKey builds the key for an output produced directly by action.
func NewOutputKey(action ActionID, name string) OutputKey {
	return OutputKey(string(action) + "." + name)
}

// Prefixed re-keys the output into the parent frame of action.
func (k OutputKey) Prefixed(action ActionID) OutputKey {
	return OutputKey(string(action) + "." + string(k))
}

// Segments splits the key into its ActionIds followed by the output name.
func (k OutputKey) Segments() []string {
	if k == "" {
		return nil
	}
	return strings.Split(string(k), ".")
}

// LeadingAction returns the ActionId of the action, at the level of the key's
// owner, that produced (or contains the producer of) the output.
func (k OutputKey) LeadingAction() ActionID {
	s, _, _ := strings.Cut(string(k), ".")
	return ActionID(s)
}

// Name returns the trailing output name.
func (k OutputKey) Name() string {
	i := strings.LastIndex(string(k), ".")
	return string(k)[i+1:]
}

// Depth returns the nesting depth at which the output was produced.
// A key with n segments was produced n-1 calls deep.
func (k OutputKey) Depth() int {
	return len(k.Segments()) - 1
}

// Validate checks the key has at least one ActionId and a name.
func (k OutputKey) Validate() error {
	segs := k.Segments()
	if len(segs) < 2 {
		return fmt.Errorf("output key %q: expected <action>.<name>", string(k))
	}
	for _, s := range segs {
		if s == "" {
			return fmt.Errorf("output key %q: empty segment", string(k))
		}
	}
	return nil
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
