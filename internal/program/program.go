// Package program loads algot program files.
//
// A program bundles user-defined operations, an optional concrete graph to
// execute them against, and per-operation example values for approximate
// replay. Programs are written in YAML, JSON or CUE; all three decode into
// the same Program value.
package program

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"

	"github.com/roach88/algot/internal/catalog"
	"github.com/roach88/algot/internal/graph"
	"github.com/roach88/algot/internal/ir"
)

// Format is a program file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// ErrUnsupportedFormat is returned for files whose extension names no
// known format.
var ErrUnsupportedFormat = errors.New("unsupported program file extension")

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Program is a decoded program file.
type Program struct {
	Operations []*ir.Operation `json:"operations" yaml:"operations"`

	// Graph is the concrete graph that execute and evaluate run against.
	Graph *graph.ConcreteGraph `json:"graph,omitempty" yaml:"graph,omitempty"`

	// ExampleValues seeds approximate replay, keyed by operation then pattern.
	ExampleValues map[ir.OperationID]map[ir.PatternID]ir.Value `json:"example_values,omitempty" yaml:"example_values,omitempty"`
}

// LoadError reports a program that could not be read or decoded.
type LoadError struct {
	Path   string
	Format Format
	Err    error
}

func (e *LoadError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("load %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("load %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads a program from path. A directory is loaded as a CUE package.
func Load(path string) (*Program, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		prog, err := loadCUEPackage(path)
		if err != nil {
			return nil, &LoadError{Path: path, Format: FormatCUE, Err: err}
		}
		return prog, nil
	}

	format, err := FormatOf(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Format: format, Err: err}
	}
	prog, err := decode(data, format, path)
	if err != nil {
		return nil, &LoadError{Path: path, Format: format, Err: err}
	}
	return prog, nil
}

// Decode parses a program held in memory.
func Decode(data []byte, format Format) (*Program, error) {
	return decode(data, format, "program."+string(format))
}

func decode(data []byte, format Format, filename string) (*Program, error) {
	var (
		prog Program
		err  error
	)
	switch format {
	case FormatYAML:
		err = decodeYAML(data, &prog)
	case FormatJSON:
		err = decodeJSON(data, &prog)
	case FormatCUE:
		err = decodeCUE(data, filename, &prog)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, err
	}
	prog.Normalize()
	return &prog, nil
}

func decodeYAML(data []byte, prog *Program) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(prog); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, prog *Program) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(prog); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

// decodeCUE evaluates a single CUE file and decodes its concrete JSON export.
func decodeCUE(data []byte, filename string, prog *Program) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	return decodeCUEValue(v, prog)
}

func loadCUEPackage(dir string) (*Program, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, errors.New("no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("load cue package: %w", inst.Err)
	}
	var prog Program
	if err := decodeCUEValue(cuecontext.New().BuildInstance(inst), &prog); err != nil {
		return nil, err
	}
	prog.Normalize()
	return &prog, nil
}

func decodeCUEValue(v cue.Value, prog *Program) error {
	if err := v.Err(); err != nil {
		return fmt.Errorf("build cue value: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("cue value is not concrete: %w", err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("export cue value: %w", err)
	}
	return decodeJSON(data, prog)
}

// Normalize fills ids and empty collections after decoding.
func (p *Program) Normalize() {
	for _, op := range p.Operations {
		if op == nil {
			continue
		}
		op.Normalize()
		if op.DemoSemantics == nil {
			op.DemoSemantics = &ir.DemoSemantics{}
			op.Normalize()
		}
		if op.DemoSemantics.Actions == nil {
			op.DemoSemantics.Actions = []ir.Action{}
		}
	}
	if p.Graph != nil {
		p.Graph.Normalize()
	}
	if p.ExampleValues == nil {
		p.ExampleValues = make(map[ir.OperationID]map[ir.PatternID]ir.Value)
	}
}

// Operation returns the user-defined operation with the given id.
func (p *Program) Operation(id ir.OperationID) (*ir.Operation, bool) {
	for _, op := range p.Operations {
		if op != nil && op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// Catalog returns the standard builtins plus every operation of the
// program. The catalog holds the program's operation pointers.
func (p *Program) Catalog() (*catalog.Catalog, error) {
	cat := catalog.Standard()
	for _, op := range p.Operations {
		if op == nil {
			return nil, errors.New("build catalog: null operation")
		}
		if err := cat.Define(op); err != nil {
			return nil, fmt.Errorf("build catalog: %w", err)
		}
	}
	return cat, nil
}

// ExampleValuesFor returns a copy of the example values of one operation.
func (p *Program) ExampleValuesFor(id ir.OperationID) map[ir.PatternID]ir.Value {
	return maps.Clone(p.ExampleValues[id])
}

// Validate checks every operation against the catalog built from the
// program, plus the references held by example values and the graph.
// It reports all problems it finds.
func (p *Program) Validate() []ir.ValidationError {
	var errs []ir.ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ir.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[ir.OperationID]bool, len(p.Operations))
	for i, op := range p.Operations {
		if op == nil {
			add(fmt.Sprintf("operations[%d]", i), "operation is null")
			continue
		}
		if seen[op.ID] {
			add(fmt.Sprintf("operations[%d].id", i), "duplicate operation id %q", op.ID)
		}
		seen[op.ID] = true
	}

	cat, err := p.Catalog()
	if err != nil {
		add("operations", "%v", err)
		return errs
	}
	for i, op := range p.Operations {
		for _, e := range op.Validate(cat) {
			add(fmt.Sprintf("operations[%d].%s", i, e.Field), "%s", e.Message)
		}
	}

	for _, id := range slices.Sorted(maps.Keys(p.ExampleValues)) {
		op, ok := p.Operation(id)
		if !ok {
			add("example_values."+string(id), "unknown operation %q", id)
			continue
		}
		for _, pat := range slices.Sorted(maps.Keys(p.ExampleValues[id])) {
			if _, ok := op.Patterns[pat]; !ok {
				add(fmt.Sprintf("example_values.%s.%s", id, pat), "unknown pattern %q", pat)
			}
		}
	}

	if p.Graph != nil {
		for _, id := range p.Graph.SortedIDs() {
			for _, t := range p.Graph.Nodes[id].Outgoing {
				if _, ok := p.Graph.Nodes[t]; !ok {
					add(fmt.Sprintf("graph.nodes.%s.outgoing", id), "unknown node %q", t)
				}
			}
		}
	}
	return errs
}
