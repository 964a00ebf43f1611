package varname

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"single letter", "a", false},
		{"letter and digits", "b52", false},
		{"word", "fortytwo", false},
		{"underscores inside", "long_name_2", false},
		{"uppercase", "VarName", false},
		{"max length", "a" + strings.Repeat("b", MaxLength-1), false},
		{"empty", "", true},
		{"leading underscore", "_a", true},
		{"leading digit", "1a", true},
		{"digits only", "42", true},
		{"space", "a c", true},
		{"tab", "a\tc", true},
		{"dash", "a-c", true},
		{"plus", "a+c", true},
		{"too long", "a" + strings.Repeat("b", MaxLength), true},
		{"non-ascii", "größe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := New(tt.input)
			if tt.wantErr {
				assert.IsError(t, err, ErrInvalidVariableName)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.input, n.String())
			}
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		assert.NotZero(t, recover())
	}()

	MustNew("not valid")
}

func TestNameAsMapKey(t *testing.T) {
	m := map[Name]int{
		MustNew("a"): 1,
		MustNew("b"): 2,
	}
	assert.Equal(t, 1, m[MustNew("a")])
	assert.Equal(t, 2, m[MustNew("b")])
}
