// Package harness runs algot scenarios: executable expectations about how
// an operation of a program replays.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: grow_run
//	description: "addChild runs and its output is incremented"
//	program: ../programs/grow.yaml   # relative to the scenario file
//	operation: grow
//	max_depth: 8                      # optional engine depth limit
//	example_values: { a: 5 }          # overrides the program's values
//	execute:                          # optional concrete replay
//	  args:
//	    - node: "0"
//	    - literal: 3
//	expect:
//	  outcomes: { "0": Run, "1": Run }
//	  error: ""
//	assertions:
//	  - type: outcome_count
//	    outcome: Run
//	    count: 2
//
// # Assertion Types
//
//   - outcome: the step at path has the given outcome
//   - outcome_count: exactly count steps have the given outcome
//   - node_value: at path, the node with the given descriptor key
//     (e.g. "pattern:a", "output:0.A") holds value
//   - query_result: at path, the query application held ("true"),
//     failed ("false") or was not evaluated ("unevaluated")
//   - final_value: after the concrete replay, node holds value
//
// # Deterministic Testing
//
// Each scenario records its approximation into a fresh in-memory store
// with fixed replay ids and reads the trace back, so the trace under test
// is the one that survives storage. Golden files hold the canonical JSON
// of that trace.
package harness
