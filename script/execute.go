package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/decls"
	"github.com/google/cel-go/common/types/ref"

	"github.com/Finii/taskolib/sequence"
)

// ExecuteStep evaluates the script of step against vars and returns the
// script's boolean result, or false if the script yields anything else. Only
// the step's imported variable names are visible to the expression; imported
// names missing from vars are bound to null. If the script evaluates to a
// map, the step's exported variable names are copied from it back into vars.
// Evaluation honors cancellation and deadlines on ctx.
func ExecuteStep(ctx context.Context, step *sequence.Step, vars Variables) (bool, error) {
	source := step.Script()
	if strings.TrimSpace(source) == "" {
		return false, nil
	}

	// ContextEval only polls the context between evaluation steps, so an
	// expression cheaper than one poll interval would ignore an expired
	// deadline entirely.
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrScript, err)
	}

	imported := step.ImportedVariableNames()

	varDecls := make([]*decls.VariableDecl, 0, len(imported))
	activation := make(map[string]any, len(imported))

	for _, name := range imported {
		varDecls = append(varDecls, decls.NewVariable(name.String(), cel.DynType))

		value, ok := vars[name]
		if !ok {
			activation[name.String()] = nil
			continue
		}

		bound, err := bindable(value)
		if err != nil {
			return false, fmt.Errorf("%w: variable %s: %v", ErrScript, name, err)
		}

		activation[name.String()] = bound
	}

	// Export maps mix value types, so aggregate literals stay heterogeneous.
	env, err := cel.NewEnv(
		cel.EagerlyValidateDeclarations(true),
		cel.VariableDecls(varDecls...),
	)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrScript, err)
	}

	ast, issues := env.Parse(source)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("%w: %v", ErrScript, issues.Err())
	}

	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("%w: %v", ErrScript, issues.Err())
	}

	prg, err := env.Program(checked)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrScript, err)
	}

	val, _, err := prg.ContextEval(ctx, activation)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrScript, err)
	}

	native := val.Value()

	if result, ok := native.(bool); ok {
		return result, nil
	}

	if m, ok := nativeMap(native); ok {
		if err := exportVariables(step, m, vars); err != nil {
			return false, err
		}
	}

	return false, nil
}

// nativeMap tries to view a CEL evaluation result as a string-keyed map.
func nativeMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(m))

		for k, v := range m {
			key, ok := k.Value().(string)
			if !ok {
				return nil, false
			}

			out[key] = v.Value()
		}

		return out, true
	default:
		return nil, false
	}
}

// exportVariables copies the step's exported names out of the script result.
func exportVariables(step *sequence.Step, result map[string]any, vars Variables) error {
	for _, name := range step.ExportedVariableNames() {
		raw, ok := result[name.String()]
		if !ok {
			continue
		}

		value, err := Normalize(raw)
		if err != nil {
			return fmt.Errorf("%w: exported variable %s: %v", ErrScript, name, err)
		}

		vars[name] = value
	}

	return nil
}
