package editor

import (
	"maps"
	"slices"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
)

// State is the editor state of a session.
type State struct {
	// ExampleValues seeds the approximate replay, one value per pattern.
	ExampleValues map[ir.PatternID]ir.Value `json:"example_values"`

	// ActionStack is the cursor.
	ActionStack []int `json:"action_stack"`

	// ExpandedActions holds the ActionId stacks (dot-joined) of nested
	// calls whose bodies are shown. Kept sorted.
	ExpandedActions []string `json:"expanded_actions"`

	// ActiveConditions are attached to every action added while they are set.
	ActiveConditions []ir.ActionCondition `json:"active_conditions"`

	// OpenPaths are the paths the cursor may visit, in path order.
	OpenPaths []ir.Path `json:"open_paths"`

	// ReachablePaths are all paths the last replay recorded.
	ReachablePaths []ir.Path `json:"reachable_paths"`

	// Approximations holds the recorded step for every open path.
	Approximations map[ir.Path]engine.Step `json:"approximations"`

	// PatternMatches maps each open path to the descriptors the patterns
	// of the operation executing there are bound to.
	PatternMatches map[ir.Path]map[ir.PatternID]ir.Descriptor `json:"pattern_matches"`
}

// Clone returns a copy of the state. Recorded steps are shared; they are
// never modified after a replay.
func (s State) Clone() State {
	out := State{
		ExampleValues:    maps.Clone(s.ExampleValues),
		ActionStack:      slices.Clone(s.ActionStack),
		ExpandedActions:  slices.Clone(s.ExpandedActions),
		ActiveConditions: slices.Clone(s.ActiveConditions),
		OpenPaths:        slices.Clone(s.OpenPaths),
		ReachablePaths:   slices.Clone(s.ReachablePaths),
		Approximations:   maps.Clone(s.Approximations),
	}
	if s.PatternMatches != nil {
		out.PatternMatches = make(map[ir.Path]map[ir.PatternID]ir.Descriptor, len(s.PatternMatches))
		for p, m := range s.PatternMatches {
			out.PatternMatches[p] = maps.Clone(m)
		}
	}
	return out
}

// Path returns the cursor as a path.
func (s State) Path() ir.Path {
	return ir.PathOf(s.ActionStack)
}

// IsExpanded reports whether the nested call at the ActionId stack is
// expanded.
func (s State) IsExpanded(ids []ir.ActionID) bool {
	_, found := slices.BinarySearch(s.ExpandedActions, ir.ActionIDPath(ids))
	return found
}

func (s *State) expand(key string) {
	if i, found := slices.BinarySearch(s.ExpandedActions, key); !found {
		s.ExpandedActions = slices.Insert(s.ExpandedActions, i, key)
	}
}

func (s *State) contract(key string) {
	if i, found := slices.BinarySearch(s.ExpandedActions, key); found {
		s.ExpandedActions = slices.Delete(s.ExpandedActions, i, i+1)
	}
}

func (s State) isOpen(p ir.Path) bool {
	return slices.Contains(s.OpenPaths, p)
}

// checkpoint is one undo stack entry.
type checkpoint struct {
	operations []savedOperation
	state      State
	trace      *engine.Trace
}

// savedOperation pairs a live catalog operation with its saved copy.
type savedOperation struct {
	live  *ir.Operation
	saved *ir.Operation
}
