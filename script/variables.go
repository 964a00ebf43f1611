// Package script evaluates step script payloads as CEL expressions against a
// set of context variables. The structural validation in package sequence
// never looks at scripts; this package is the collaborator that interprets
// them.
package script

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Finii/taskolib/varname"
)

// Sentinel errors
var (
	// ErrScript is the base error for script compilation and evaluation faults.
	ErrScript = errors.New("error while executing script")
	// ErrUnsupportedValue indicates a context variable holds a type that cannot
	// cross the script boundary.
	ErrUnsupportedValue = errors.New("unsupported variable value type")
)

// Variables is the execution context shared between steps: every entry maps a
// validated variable name to an int64, float64, string, bool, time.Time, or
// decimal.Decimal value.
type Variables map[varname.Name]any

// Clone returns a shallow copy. Values are immutable kinds, so a shallow copy
// is an independent context.
func (v Variables) Clone() Variables {
	out := make(Variables, len(v))
	for name, value := range v {
		out[name] = value
	}

	return out
}

// Normalize converts a value produced by script evaluation into one of the
// supported context kinds.
func Normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool, int64, float64, string, time.Time, decimal.Decimal:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

// bindable converts a context value into a representation the CEL runtime
// accepts. Decimals lose precision here; they travel as float64.
func bindable(value any) (any, error) {
	if d, ok := value.(decimal.Decimal); ok {
		return d.InexactFloat64(), nil
	}

	return Normalize(value)
}
