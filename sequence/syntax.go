package sequence

import "fmt"

// SyntaxError reports the first structural fault found by CheckSyntax,
// carrying the 1-based position of the offending step.
type SyntaxError struct {
	Position int
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("[syntax check] Step %d: %s", e.Position, e.Message)
}

func syntaxErrorAt(idx int, msg string) error {
	return &SyntaxError{Position: idx + 1, Message: msg}
}

// CheckSyntax validates that the steps form well-nested if/elseif/else,
// while, and try/catch constructs. It fails immediately with the indentation
// pass's recorded error if one exists; syntax checking is meaningless on a
// sequence whose nesting could not even be depth-assigned. Otherwise it
// performs a recursive-descent check over the flat step list and returns a
// SyntaxError for the first violation in left-to-right, outermost-to-
// innermost order. The sequence is not modified.
func (s *Sequence) CheckSyntax() error {
	if s.indentationError != nil {
		return s.indentationError
	}

	return s.checkSyntax(0, len(s.steps))
}

// checkSyntax validates the half-open range [begin, end) as a block body.
func (s *Sequence) checkSyntax(begin, end int) error {
	idx := begin

	for idx < end {
		var err error

		switch s.steps[idx].typ {
		case StepWhile:
			idx, err = s.checkSyntaxForWhile(idx, end)
		case StepTry:
			idx, err = s.checkSyntaxForTry(idx, end)
		case StepIf:
			idx, err = s.checkSyntaxForIf(idx, end)
		case StepAction:
			idx++
		case StepCatch:
			err = syntaxErrorAt(idx, "CATCH without matching TRY")
		case StepElseIf:
			err = syntaxErrorAt(idx, "ELSE IF without matching IF")
		case StepElse:
			err = syntaxErrorAt(idx, "ELSE without matching IF")
		case StepEnd:
			err = syntaxErrorAt(idx, "END without matching IF/WHILE/TRY")
		default:
			err = syntaxErrorAt(idx, "Unexpected step type")
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// findEndOfIndentedBlock returns the index of the first step in [begin, end)
// whose indentation level is below minLevel, or end if there is none. Steps
// at or above minLevel belong to the block body, including more deeply
// nested constructs.
func (s *Sequence) findEndOfIndentedBlock(begin, end, minLevel int) int {
	for i := begin; i < end; i++ {
		if s.steps[i].indentationLevel < minLevel {
			return i
		}
	}

	return end
}

// checkSyntaxForWhile validates `WHILE body END` starting at the while step
// and returns the index just past the construct.
func (s *Sequence) checkSyntaxForWhile(begin, end int) (int, error) {
	blockEnd := s.findEndOfIndentedBlock(begin+1, end, s.steps[begin].indentationLevel+1)

	if blockEnd == end || s.steps[blockEnd].typ != StepEnd {
		return 0, syntaxErrorAt(begin, "WHILE without matching END")
	}

	if err := s.checkSyntax(begin+1, blockEnd); err != nil {
		return 0, err
	}

	return blockEnd + 1, nil
}

// checkSyntaxForTry validates `TRY body CATCH body END` starting at the try
// step and returns the index just past the construct.
func (s *Sequence) checkSyntaxForTry(begin, end int) (int, error) {
	level := s.steps[begin].indentationLevel + 1

	catchIdx := s.findEndOfIndentedBlock(begin+1, end, level)
	if catchIdx == end || s.steps[catchIdx].typ != StepCatch {
		return 0, syntaxErrorAt(begin, "TRY without matching CATCH")
	}

	// block between TRY and CATCH
	if err := s.checkSyntax(begin+1, catchIdx); err != nil {
		return 0, err
	}

	blockEnd := s.findEndOfIndentedBlock(catchIdx+1, end, level)
	if blockEnd == end || s.steps[blockEnd].typ != StepEnd {
		return 0, syntaxErrorAt(begin, "TRY...CATCH without matching END")
	}

	// block between CATCH and END
	if err := s.checkSyntax(catchIdx+1, blockEnd); err != nil {
		return 0, err
	}

	return blockEnd + 1, nil
}

// checkSyntaxForIf validates `IF body (ELSEIF body)* (ELSE body)? END`
// starting at the if step and returns the index just past the construct.
// Every clause body is validated, not just the branch that would run.
func (s *Sequence) checkSyntaxForIf(begin, end int) (int, error) {
	elseFound := false
	clause := begin

	for {
		boundary := s.findEndOfIndentedBlock(clause+1, end, s.steps[begin].indentationLevel+1)

		if boundary == end {
			return 0, syntaxErrorAt(begin, "IF without matching END")
		}

		if err := s.checkSyntax(clause+1, boundary); err != nil {
			return 0, err
		}

		switch s.steps[boundary].typ {
		case StepElseIf:
			if elseFound {
				return 0, syntaxErrorAt(boundary, "ELSE IF after ELSE clause")
			}
		case StepElse:
			if elseFound {
				return 0, syntaxErrorAt(boundary, "Duplicate ELSE clause")
			}

			elseFound = true
		case StepEnd:
			return boundary + 1, nil
		default:
			return 0, syntaxErrorAt(boundary, "Unfinished IF construct")
		}

		clause = boundary
	}
}
