package ir

import (
	"maps"
	"slices"
	"strconv"
)

// OperationID identifies an operation in the catalog.
type OperationID string

// PatternID identifies a pattern node within one operation.
type PatternID string

// ActionID identifies an action within one DemoSemantics.
// Unlike the action's position, the id survives reorder and insertion.
type ActionID string

// QueryAppID identifies a query application within one DemoSemantics.
type QueryAppID string

// EndActionID is the ActionId used for the position after the last action.
const EndActionID ActionID = "-1"

// Operation is a builtin or user-defined graph transformation.
//
// Builtins carry no DemoSemantics; their behaviour lives in the catalog.
// User-defined operations carry the recorded action list.
type Operation struct {
	ID            OperationID           `json:"id" yaml:"id"`
	Name          string                `json:"name,omitempty" yaml:"name,omitempty"`
	Inputs        []PatternID           `json:"inputs" yaml:"inputs"`
	Patterns      map[PatternID]Pattern `json:"patterns" yaml:"patterns"`
	DemoSemantics *DemoSemantics        `json:"demo_semantics,omitempty" yaml:"demo_semantics,omitempty"`
	IsQuery       bool                  `json:"is_query,omitempty" yaml:"is_query,omitempty"`

	// HasOutput marks builtins whose created node becomes the action output.
	HasOutput bool `json:"has_output,omitempty" yaml:"has_output,omitempty"`
}

// Pattern is a formal, named slot in an operation's input graph.
//
// Incoming and Outgoing declare expected structural neighbours. They are
// matched by position, not enforced.
type Pattern struct {
	ID       PatternID   `json:"id" yaml:"id"`
	Name     string      `json:"name,omitempty" yaml:"name,omitempty"`
	Incoming []PatternID `json:"incoming,omitempty" yaml:"incoming,omitempty"`
	Outgoing []PatternID `json:"outgoing,omitempty" yaml:"outgoing,omitempty"`
	Required bool        `json:"required,omitempty" yaml:"required,omitempty"`
}

// DemoSemantics is the recorded body of a user-defined operation.
type DemoSemantics struct {
	Actions           []Action                        `json:"actions" yaml:"actions"`
	QueryApplications map[QueryAppID]QueryApplication `json:"query_applications,omitempty" yaml:"query_applications,omitempty"`
	OutputNames       map[ActionID]string             `json:"output_names,omitempty" yaml:"output_names,omitempty"`

	// NextActionID is the next id handed out by NewActionID.
	NextActionID int `json:"next_action_id,omitempty" yaml:"next_action_id,omitempty"`
}

// Action is one recorded invocation of an operation.
type Action struct {
	ID         ActionID          `json:"id" yaml:"id"`
	Operation  OperationID       `json:"operation" yaml:"operation"`
	Inputs     []Descriptor      `json:"inputs" yaml:"inputs"`
	Conditions []ActionCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// ActionCondition guards an action: the action runs only if the named
// query application evaluates to Result.
type ActionCondition struct {
	QueryApp QueryAppID  `json:"query_app" yaml:"query_app"`
	Result   Expectation `json:"result" yaml:"result"`
}

// QueryApplication binds a query operation to argument descriptors.
type QueryApplication struct {
	ID     QueryAppID   `json:"id" yaml:"id"`
	Query  OperationID  `json:"query" yaml:"query"`
	Inputs []Descriptor `json:"inputs" yaml:"inputs"`
}

// IsBuiltin reports whether the operation has no recorded body.
func (op *Operation) IsBuiltin() bool {
	return op.DemoSemantics == nil
}

// DisplayName returns Name, falling back to the id.
func (op *Operation) DisplayName() string {
	if op.Name != "" {
		return op.Name
	}
	return string(op.ID)
}

// Normalize fills pattern ids from their map keys and initialises empty
// collections. Loaders call it after decoding.
func (op *Operation) Normalize() {
	if op.Patterns == nil {
		op.Patterns = make(map[PatternID]Pattern)
	}
	for id, p := range op.Patterns {
		if p.ID == "" {
			p.ID = id
			op.Patterns[id] = p
		}
	}
	if ds := op.DemoSemantics; ds != nil {
		if ds.QueryApplications == nil {
			ds.QueryApplications = make(map[QueryAppID]QueryApplication)
		}
		for id, qa := range ds.QueryApplications {
			if qa.ID == "" {
				qa.ID = id
				ds.QueryApplications[id] = qa
			}
		}
		if ds.OutputNames == nil {
			ds.OutputNames = make(map[ActionID]string)
		}
		if next := ds.maxNumericActionID() + 1; ds.NextActionID < next {
			ds.NextActionID = next
		}
	}
}

// Clone returns a deep copy of the operation.
func (op *Operation) Clone() *Operation {
	if op == nil {
		return nil
	}
	out := *op
	out.Inputs = slices.Clone(op.Inputs)
	if op.Patterns != nil {
		out.Patterns = make(map[PatternID]Pattern, len(op.Patterns))
		for id, p := range op.Patterns {
			out.Patterns[id] = p.Clone()
		}
	}
	out.DemoSemantics = op.DemoSemantics.Clone()
	return &out
}

// Clone returns a deep copy of the pattern.
func (p Pattern) Clone() Pattern {
	p.Incoming = slices.Clone(p.Incoming)
	p.Outgoing = slices.Clone(p.Outgoing)
	return p
}

// Clone returns a deep copy of the semantics.
func (ds *DemoSemantics) Clone() *DemoSemantics {
	if ds == nil {
		return nil
	}
	out := *ds
	if ds.Actions != nil {
		out.Actions = make([]Action, len(ds.Actions))
		for i, a := range ds.Actions {
			out.Actions[i] = a.Clone()
		}
	}
	if ds.QueryApplications != nil {
		out.QueryApplications = make(map[QueryAppID]QueryApplication, len(ds.QueryApplications))
		for id, qa := range ds.QueryApplications {
			qa.Inputs = slices.Clone(qa.Inputs)
			out.QueryApplications[id] = qa
		}
	}
	out.OutputNames = maps.Clone(ds.OutputNames)
	return &out
}

// Clone returns a deep copy of the action.
func (a Action) Clone() Action {
	a.Inputs = slices.Clone(a.Inputs)
	a.Conditions = slices.Clone(a.Conditions)
	return a
}

// ActionIndex returns the position of the action with the given id, or -1.
func (ds *DemoSemantics) ActionIndex(id ActionID) int {
	return slices.IndexFunc(ds.Actions, func(a Action) bool { return a.ID == id })
}

// NewActionID hands out a fresh ActionId. Ids are never reused, even after
// the action holding them is deleted.
func (ds *DemoSemantics) NewActionID() ActionID {
	if next := ds.maxNumericActionID() + 1; ds.NextActionID < next {
		ds.NextActionID = next
	}
	id := ActionID(strconv.Itoa(ds.NextActionID))
	ds.NextActionID++
	return id
}

func (ds *DemoSemantics) maxNumericActionID() int {
	maxID := -1
	for _, a := range ds.Actions {
		if n, ok := atoi(string(a.ID)); ok && n > maxID {
			maxID = n
		}
	}
	for id := range ds.OutputNames {
		if n, ok := atoi(string(id)); ok && n > maxID {
			maxID = n
		}
	}
	return maxID
}
