// Package ir provides the recorded-program types for algot.
//
// An Operation is either a builtin primitive or a user-defined operation
// whose body (DemoSemantics) was recorded by demonstration. The body is an
// ordered list of Actions; each Action names the operation it invokes, the
// AbstractNodeDescriptors bound to its inputs and the query conditions that
// guard it.
//
// This package contains type definitions, runtime error types and program
// validation. All other internal packages import ir; ir imports nothing
// internal.
//
// Key design constraints:
//   - ActionIds are stable across reorder and never reused after deletion
//   - OutputKeys are dot-joined ActionId stacks ending in an output name
//   - Values are scalars (number or string) and encode as bare JSON/YAML scalars
//   - All JSON and YAML tags use snake_case
package ir
