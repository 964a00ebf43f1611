package sequence

import (
	"errors"
	"fmt"

	"github.com/Finii/taskolib"
)

// Nesting errors recorded by the indentation pass. They describe the whole
// sequence, not an individual step.
var (
	ErrNotNestedCorrectly = errors.New("steps are not nested correctly")
	ErrExcessEnd          = errors.New("steps are not nested correctly (every END must correspond to one IF, TRY, or WHILE)")
	ErrMissingEnd         = errors.New("steps are not nested correctly (there must be one END for each IF, TRY, WHILE)")
	ErrNestedTooDeeply    = fmt.Errorf("steps are nested too deeply (max. level: %d)", taskolib.MaxIndentationLevel)
)

// Indent assigns an indentation level to every step according to its logical
// nesting. It never fails: if the nesting is broken, an approximate level is
// assigned anyway and the first problem is recorded in the sequence's
// indentation error, queryable via IndentationError. Re-running the pass on
// an unchanged sequence produces identical results, as it depends only on the
// order of step types.
func (s *Sequence) Indent() {
	level := 0
	s.indentationError = nil

	for i := range s.steps {
		stepLevel := 0

		switch s.steps[i].typ {
		case StepAction:
			stepLevel = level
		case StepIf, StepTry, StepWhile:
			stepLevel = level
			level++
		case StepCatch, StepElse, StepElseIf:
			stepLevel = level - 1
		case StepEnd:
			stepLevel = level - 1
			level--
		}

		if stepLevel < 0 {
			stepLevel = 0

			if s.indentationError == nil {
				s.indentationError = ErrNotNestedCorrectly
			}
		}

		s.steps[i].indentationLevel = stepLevel

		if level < 0 {
			level = 0

			if s.indentationError == nil {
				s.indentationError = ErrExcessEnd
			}
		} else if level > taskolib.MaxIndentationLevel {
			level = taskolib.MaxIndentationLevel

			if s.indentationError == nil {
				s.indentationError = ErrNestedTooDeeply
			}
		}
	}

	if level != 0 && s.indentationError == nil {
		s.indentationError = ErrMissingEnd
	}
}
