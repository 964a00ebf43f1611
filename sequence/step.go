// Package sequence implements automation sequences: ordered lists of typed
// steps encoding control flow, with indentation assignment and structural
// syntax checking over the flat step list.
package sequence

import (
	"time"

	"github.com/Finii/taskolib/varname"
)

// StepType is the closed set of structural step tags.
type StepType int

const (
	// StepAction runs a script without affecting control flow.
	StepAction StepType = iota
	// StepIf opens a conditional block.
	StepIf
	// StepElseIf continues a conditional block with another condition.
	StepElseIf
	// StepElse continues a conditional block unconditionally.
	StepElse
	// StepWhile opens a loop block.
	StepWhile
	// StepTry opens a block whose faults are caught by the matching catch.
	StepTry
	// StepCatch separates the guarded block from its fault handler.
	StepCatch
	// StepEnd closes the innermost if, while, or try block.
	StepEnd
)

// String returns the serialized name of the step type.
func (t StepType) String() string {
	switch t {
	case StepAction:
		return "action"
	case StepIf:
		return "if"
	case StepElseIf:
		return "elseif"
	case StepElse:
		return "else"
	case StepWhile:
		return "while"
	case StepTry:
		return "try"
	case StepCatch:
		return "catch"
	case StepEnd:
		return "end"
	default:
		return "unknown"
	}
}

// ParseStepType converts a serialized name back into a StepType.
func ParseStepType(s string) (StepType, bool) {
	switch s {
	case "action":
		return StepAction, true
	case "if":
		return StepIf, true
	case "elseif":
		return StepElseIf, true
	case "else":
		return StepElse, true
	case "while":
		return StepWhile, true
	case "try":
		return StepTry, true
	case "catch":
		return StepCatch, true
	case "end":
		return StepEnd, true
	default:
		return StepAction, false
	}
}

// Step is one entry in a sequence. Its type and order inside the sequence are
// the only structural signals; steps never reference each other.
type Step struct {
	typ              StepType
	label            string
	script           string
	indentationLevel int
	timeout          time.Duration
	importedNames    []varname.Name
	exportedNames    []varname.Name
	lastModification time.Time
	lastExecution    time.Time
}

// NewStep returns a step of the given type with an up-to-date modification time.
func NewStep(typ StepType) Step {
	return Step{typ: typ, lastModification: time.Now()}
}

// Type returns the structural type of this step.
func (s *Step) Type() StepType {
	return s.typ
}

// SetType changes the structural type and updates the modification time.
func (s *Step) SetType(typ StepType) {
	s.typ = typ
	s.lastModification = time.Now()
}

// Label returns the descriptive label of the step.
func (s *Step) Label() string {
	return s.label
}

// SetLabel sets the descriptive label and updates the modification time.
func (s *Step) SetLabel(label string) {
	s.label = label
	s.lastModification = time.Now()
}

// Script returns the step's script payload. Its interpretation belongs to the
// script package, not to structural validation.
func (s *Step) Script() string {
	return s.script
}

// SetScript replaces the script payload and updates the modification time.
func (s *Step) SetScript(script string) {
	s.script = script
	s.lastModification = time.Now()
}

// IndentationLevel returns the nesting depth assigned by the last
// indentation pass.
func (s *Step) IndentationLevel() int {
	return s.indentationLevel
}

// Timeout returns the maximum runtime for the step script. Zero means the
// caller's default applies.
func (s *Step) Timeout() time.Duration {
	return s.timeout
}

// SetTimeout sets the script timeout. Negative values are clamped to zero.
func (s *Step) SetTimeout(timeout time.Duration) {
	if timeout < 0 {
		timeout = 0
	}

	s.timeout = timeout
}

// ImportedVariableNames returns the context variables made visible to the
// step script.
func (s *Step) ImportedVariableNames() []varname.Name {
	return append([]varname.Name(nil), s.importedNames...)
}

// SetImportedVariableNames replaces the list of imported context variables.
func (s *Step) SetImportedVariableNames(names ...varname.Name) {
	s.importedNames = append([]varname.Name(nil), names...)
}

// ExportedVariableNames returns the script results copied back into the
// context after execution.
func (s *Step) ExportedVariableNames() []varname.Name {
	return append([]varname.Name(nil), s.exportedNames...)
}

// SetExportedVariableNames replaces the list of exported context variables.
func (s *Step) SetExportedVariableNames(names ...varname.Name) {
	s.exportedNames = append([]varname.Name(nil), names...)
}

// TimeOfLastModification reports when type, label, or script last changed.
func (s *Step) TimeOfLastModification() time.Time {
	return s.lastModification
}

// SetTimeOfLastModification overrides the modification timestamp, e.g. when
// loading a stored sequence.
func (s *Step) SetTimeOfLastModification(t time.Time) {
	s.lastModification = t
}

// TimeOfLastExecution reports when the step script last ran.
func (s *Step) TimeOfLastExecution() time.Time {
	return s.lastExecution
}

// SetTimeOfLastExecution records an execution timestamp.
func (s *Step) SetTimeOfLastExecution(t time.Time) {
	s.lastExecution = t
}

// EntersBlock reports whether this step opens a nested block.
func (t StepType) EntersBlock() bool {
	return t == StepIf || t == StepWhile || t == StepTry
}
