package sequence

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCheckSyntaxValid(t *testing.T) {
	tests := []struct {
		name  string
		types []StepType
	}{
		{"empty sequence", nil},
		{"only actions", []StepType{StepAction, StepAction, StepAction}},
		{"try catch end", []StepType{StepTry, StepAction, StepCatch, StepEnd}},
		{"try catch with handler body", []StepType{StepTry, StepAction, StepCatch, StepAction, StepEnd}},
		{"if end", []StepType{StepIf, StepAction, StepEnd}},
		{"if else end", []StepType{StepIf, StepAction, StepElse, StepAction, StepEnd}},
		{"if elseif else end", []StepType{StepIf, StepAction, StepElseIf, StepAction, StepElse, StepAction, StepEnd}},
		{"if elseif elseif else end", []StepType{
			StepIf, StepAction, StepElseIf, StepAction, StepElseIf, StepAction, StepElse, StepAction, StepEnd,
		}},
		{"while end", []StepType{StepWhile, StepAction, StepEnd}},
		{"empty clause bodies", []StepType{StepIf, StepElse, StepEnd}},
		{"try in elseif branch", []StepType{
			StepIf, StepAction,
			StepElseIf, StepTry, StepAction, StepCatch, StepAction, StepEnd,
			StepElseIf, StepAction,
			StepEnd,
		}},
		{"try nested in try body", []StepType{
			StepTry, StepTry, StepAction, StepCatch, StepAction, StepEnd, StepCatch, StepAction, StepEnd,
		}},
		{"while nested in elseif branch", []StepType{
			StepIf, StepAction, StepElseIf, StepWhile, StepAction, StepEnd, StepElse, StepAction, StepEnd,
		}},
		{"three level nesting", []StepType{
			StepWhile, StepIf, StepTry, StepAction, StepCatch, StepAction, StepEnd, StepEnd, StepEnd,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := makeSequence(t, tt.types...)
			assert.NoError(t, seq.CheckSyntax())
		})
	}
}

func TestCheckSyntaxFaults(t *testing.T) {
	tests := []struct {
		name         string
		types        []StepType
		wantPosition int
		wantMessage  string
	}{
		{
			name:         "lone try",
			types:        []StepType{StepTry, StepEnd},
			wantPosition: 1,
			wantMessage:  "TRY without matching CATCH",
		},
		{
			name:         "try catch catch end",
			types:        []StepType{StepTry, StepAction, StepCatch, StepCatch, StepEnd},
			wantPosition: 1,
			wantMessage:  "TRY...CATCH without matching END",
		},
		{
			name:         "while without end boundary",
			types:        []StepType{StepWhile, StepAction, StepCatch, StepTry, StepAction, StepCatch, StepEnd, StepEnd},
			wantPosition: 1,
			wantMessage:  "WHILE without matching END",
		},
		{
			name:         "if closed by catch",
			types:        []StepType{StepIf, StepAction, StepCatch, StepAction, StepEnd},
			wantPosition: 3,
			wantMessage:  "Unfinished IF construct",
		},
		{
			name:         "elseif after else",
			types:        []StepType{StepIf, StepAction, StepElse, StepAction, StepElseIf, StepAction, StepEnd},
			wantPosition: 5,
			wantMessage:  "ELSE IF after ELSE clause",
		},
		{
			name:         "duplicate else",
			types:        []StepType{StepIf, StepAction, StepElse, StepAction, StepElse, StepAction, StepEnd},
			wantPosition: 5,
			wantMessage:  "Duplicate ELSE clause",
		},
		{
			name:         "try closed by else",
			types:        []StepType{StepTry, StepAction, StepElse, StepAction, StepEnd},
			wantPosition: 1,
			wantMessage:  "TRY without matching CATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := makeSequence(t, tt.types...)
			assert.NoError(t, seq.IndentationError())

			err := seq.CheckSyntax()
			assert.Error(t, err)

			var syntaxErr *SyntaxError

			assert.True(t, asSyntaxError(err, &syntaxErr))
			assert.Equal(t, tt.wantPosition, syntaxErr.Position)
			assert.Equal(t, tt.wantMessage, syntaxErr.Message)
		})
	}
}

func TestCheckSyntaxReportsIndentationError(t *testing.T) {
	tests := []struct {
		name    string
		types   []StepType
		wantErr error
	}{
		{"lone try", []StepType{StepTry}, ErrMissingEnd},
		{"try try", []StepType{StepTry, StepTry}, ErrMissingEnd},
		{"try catch without end", []StepType{StepTry, StepAction, StepCatch}, ErrMissingEnd},
		{"try end missing catch", []StepType{StepTry, StepEnd, StepEnd}, ErrNotNestedCorrectly},
		{"lone end", []StepType{StepEnd}, ErrNotNestedCorrectly},
		{"end before action", []StepType{StepEnd, StepAction}, ErrNotNestedCorrectly},
		{"end before try", []StepType{StepEnd, StepTry}, ErrNotNestedCorrectly},
		{"end before catch", []StepType{StepEnd, StepCatch}, ErrNotNestedCorrectly},
		{"end before if", []StepType{StepEnd, StepIf}, ErrNotNestedCorrectly},
		{"end before elseif", []StepType{StepEnd, StepElseIf}, ErrNotNestedCorrectly},
		{"end before else", []StepType{StepEnd, StepElse}, ErrNotNestedCorrectly},
		{"end before while", []StepType{StepEnd, StepWhile}, ErrNotNestedCorrectly},
		{"missing inner end", []StepType{
			StepIf, StepTry, StepAction, StepCatch, StepAction, StepEnd,
		}, ErrMissingEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := makeSequence(t, tt.types...)
			assert.IsError(t, seq.CheckSyntax(), tt.wantErr)
		})
	}
}

// The formatted diagnostic names the 1-based step position.
func TestSyntaxErrorFormat(t *testing.T) {
	seq := makeSequence(t,
		StepWhile, StepAction, StepEnd,
		StepIf, StepAction, StepCatch, StepAction, StepEnd)

	err := seq.CheckSyntax()
	assert.Error(t, err)
	assert.Equal(t, "[syntax check] Step 6: Unfinished IF construct", err.Error())
}

func TestCheckSyntaxDoesNotMutate(t *testing.T) {
	seq := makeSequence(t, StepIf, StepAction, StepElse, StepAction, StepEnd)
	before := levels(seq)

	assert.NoError(t, seq.CheckSyntax())
	assert.Equal(t, before, levels(seq))
}

func asSyntaxError(err error, target **SyntaxError) bool {
	se, ok := err.(*SyntaxError)
	if ok {
		*target = se
	}

	return ok
}
