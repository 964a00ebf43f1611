package sequence

import (
	"fmt"
	"iter"

	"github.com/Finii/taskolib"
	"github.com/Finii/taskolib/varname"
)

// Sequence is an ordered list of steps with a descriptive label. All mutators
// re-run the indentation pass so that the steps are always depth-annotated;
// structural validity is only guaranteed after a successful CheckSyntax.
type Sequence struct {
	label string
	steps []Step

	// indentationError holds the first problem found by the last indentation
	// pass, or nil if the nesting is correct and complete.
	indentationError error
}

// New constructs an empty sequence with the given label.
func New(label string) (*Sequence, error) {
	if err := CheckLabel(label); err != nil {
		return nil, err
	}

	return &Sequence{label: label}, nil
}

// CheckLabel validates a sequence label: non-empty and at most
// taskolib.MaxLabelLength characters.
func CheckLabel(label string) error {
	if label == "" {
		return fmt.Errorf("sequence label: %w", taskolib.ErrEmptyLabel)
	}

	if len([]rune(label)) > taskolib.MaxLabelLength {
		return fmt.Errorf("sequence label %q: %w (>%d characters)", label,
			taskolib.ErrLabelTooLong, taskolib.MaxLabelLength)
	}

	return nil
}

// Label returns the descriptive label of the sequence.
func (s *Sequence) Label() string {
	return s.label
}

// Size returns the number of steps.
func (s *Sequence) Size() int {
	return len(s.steps)
}

// Empty reports whether the sequence contains no steps.
func (s *Sequence) Empty() bool {
	return len(s.steps) == 0
}

// Step returns a copy of the step at idx. Steps are returned by value; use
// Modify to change a step in place so the sequence can re-establish its
// indentation invariant.
func (s *Sequence) Step(idx int) (Step, error) {
	if idx < 0 || idx >= len(s.steps) {
		return Step{}, fmt.Errorf("step %d: %w", idx, taskolib.ErrStepIndexOutOfRange)
	}

	return s.steps[idx], nil
}

// All iterates over index/step pairs in order. The yielded steps are copies.
func (s *Sequence) All() iter.Seq2[int, Step] {
	return func(yield func(int, Step) bool) {
		for i, step := range s.steps {
			if !yield(i, step) {
				return
			}
		}
	}
}

// PushBack appends a step to the end of the sequence.
func (s *Sequence) PushBack(step Step) {
	s.steps = append(s.steps, step)
	s.Indent()
}

// PopBack removes the last step. Popping an empty sequence is a no-op.
func (s *Sequence) PopBack() {
	if len(s.steps) > 0 {
		s.steps = s.steps[:len(s.steps)-1]
	}

	s.Indent()
}

// Insert inserts a step before idx. idx may equal Size() to append.
func (s *Sequence) Insert(idx int, step Step) error {
	if idx < 0 || idx > len(s.steps) {
		return fmt.Errorf("insert at %d: %w", idx, taskolib.ErrStepIndexOutOfRange)
	}

	s.steps = append(s.steps, Step{})
	copy(s.steps[idx+1:], s.steps[idx:])
	s.steps[idx] = step
	s.Indent()

	return nil
}

// Erase removes the step at idx.
func (s *Sequence) Erase(idx int) error {
	if idx < 0 || idx >= len(s.steps) {
		return fmt.Errorf("erase at %d: %w", idx, taskolib.ErrStepIndexOutOfRange)
	}

	s.steps = append(s.steps[:idx], s.steps[idx+1:]...)
	s.Indent()

	return nil
}

// EraseRange removes the steps in [first, last).
func (s *Sequence) EraseRange(first, last int) error {
	if first < 0 || last > len(s.steps) || first > last {
		return fmt.Errorf("erase range [%d, %d): %w", first, last, taskolib.ErrStepIndexOutOfRange)
	}

	s.steps = append(s.steps[:first], s.steps[last:]...)
	s.Indent()

	return nil
}

// Assign replaces the step at idx.
func (s *Sequence) Assign(idx int, step Step) error {
	if idx < 0 || idx >= len(s.steps) {
		return fmt.Errorf("assign at %d: %w", idx, taskolib.ErrStepIndexOutOfRange)
	}

	s.steps[idx] = step
	s.Indent()

	return nil
}

// Modify applies fn to the step at idx in place. The indentation pass is
// re-run afterwards if the step type changed, so the sequence invariants hold
// even when fn swaps an opener for a closer.
func (s *Sequence) Modify(idx int, fn func(*Step)) error {
	if idx < 0 || idx >= len(s.steps) {
		return fmt.Errorf("modify at %d: %w", idx, taskolib.ErrStepIndexOutOfRange)
	}

	oldType := s.steps[idx].typ
	oldLevel := s.steps[idx].indentationLevel

	fn(&s.steps[idx])

	if s.steps[idx].typ != oldType || s.steps[idx].indentationLevel != oldLevel {
		s.Indent()
	}

	return nil
}

// Clone returns an independent deep copy of the sequence.
func (s *Sequence) Clone() *Sequence {
	clone := &Sequence{
		label:            s.label,
		steps:            make([]Step, len(s.steps)),
		indentationError: s.indentationError,
	}

	for i, step := range s.steps {
		step.importedNames = append([]varname.Name(nil), step.importedNames...)
		step.exportedNames = append([]varname.Name(nil), step.exportedNames...)
		clone.steps[i] = step
	}

	return clone
}

// IndentationError returns the first problem recorded by the last indentation
// pass, or nil if the nesting was correct and complete.
func (s *Sequence) IndentationError() error {
	return s.indentationError
}
