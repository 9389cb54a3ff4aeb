package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/algot/internal/engine"
	"github.com/roach88/algot/internal/ir"
	"github.com/roach88/algot/internal/program"
)

// loadProgram loads a program file and reports failures with the matching
// error code. Returned errors are ExitErrors.
func loadProgram(f *OutputFormatter, path string) (*program.Program, error) {
	prog, err := program.Load(path)
	switch {
	case err == nil:
		f.VerboseLog("Loaded %d operation(s) from %s", len(prog.Operations), path)
		return prog, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("program not found: %s", path), nil)
	case errors.Is(err, program.ErrUnsupportedFormat):
		return nil, f.Fail(ExitCommandError, ErrCodeUnsupported, err.Error(), nil)
	default:
		return nil, f.Fail(ExitCommandError, ErrCodeLoadFailed, "failed to load program", err)
	}
}

// lookupOperation finds a user-defined operation or reports E006.
func lookupOperation(f *OutputFormatter, prog *program.Program, id string) (*ir.Operation, error) {
	if id == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeInvalidArgument, "--op is required", nil)
	}
	op, ok := prog.Operation(ir.OperationID(id))
	if !ok {
		return nil, f.Fail(ExitCommandError, ErrCodeUnknownOperation, fmt.Sprintf("unknown operation %q", id), nil)
	}
	return op, nil
}

// parseValue reads a flag value the way program files do: numbers become
// numbers, anything else (or a quoted scalar) a string.
func parseValue(s string) (ir.Value, error) {
	var v ir.Value
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return ir.Value{}, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

// parseExampleValues parses repeated pattern=value flags.
func parseExampleValues(specs []string) (map[ir.PatternID]ir.Value, error) {
	values := make(map[ir.PatternID]ir.Value, len(specs))
	for _, spec := range specs {
		pattern, raw, ok := strings.Cut(spec, "=")
		if !ok || pattern == "" {
			return nil, fmt.Errorf("invalid example value %q: want pattern=value", spec)
		}
		v, err := parseValue(raw)
		if err != nil {
			return nil, err
		}
		values[ir.PatternID(pattern)] = v
	}
	return values, nil
}

// parseArguments parses repeated node=<id> and value=<literal> flags into
// engine arguments, in order.
func parseArguments(specs []string) ([]engine.Argument, error) {
	args := make([]engine.Argument, 0, len(specs))
	for i, spec := range specs {
		kind, raw, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("argument %d: %q: want node=<id> or value=<literal>", i, spec)
		}
		switch kind {
		case "node":
			if raw == "" {
				return nil, fmt.Errorf("argument %d: empty node id", i)
			}
			args = append(args, engine.NodeArg(raw))
		case "value":
			v, err := parseValue(raw)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			args = append(args, engine.LiteralArg(v))
		default:
			return nil, fmt.Errorf("argument %d: unknown kind %s", i, strconv.Quote(kind))
		}
	}
	return args, nil
}
