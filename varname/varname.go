// Package varname defines the validated identifiers that sequence steps use
// to exchange values with the execution context.
package varname

import (
	"errors"
	"fmt"

	pc "github.com/shibukawa/parsercombinator"
)

// ErrInvalidVariableName is returned when a name violates the variable name grammar.
var ErrInvalidVariableName = errors.New("invalid variable name")

// MaxLength is the maximum number of characters in a variable name.
const MaxLength = 64

// Name is a valid variable name: a letter followed by letters, digits, or
// underscores, at most MaxLength characters. The zero value is invalid;
// construct names with New or MustNew.
type Name struct {
	name string
}

func charClass(typeName string, match func(rune) bool) pc.Parser[rune] {
	return func(pctx *pc.ParseContext[rune], tokens []pc.Token[rune]) (int, []pc.Token[rune], error) {
		if len(tokens) == 0 || !match(tokens[0].Val) {
			return 0, nil, pc.ErrNotMatch
		}

		return 1, tokens[:1], nil
	}
}

var (
	letter = charClass("letter", func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})
	nameRune = charClass("name rune", func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_'
	})
	namePattern = pc.Seq(letter, pc.ZeroOrMore("name runes", nameRune), pc.EOS[rune]())
)

func toParserTokens(s string) []pc.Token[rune] {
	runes := []rune(s)
	tokens := make([]pc.Token[rune], len(runes))

	for i, r := range runes {
		tokens[i] = pc.Token[rune]{
			Type: "raw",
			Pos:  &pc.Pos{Line: 1, Col: i + 1, Index: i},
			Val:  r,
			Raw:  string(r),
		}
	}

	return tokens
}

// New validates name and returns it as a Name.
func New(name string) (Name, error) {
	if name == "" {
		return Name{}, fmt.Errorf("%w: name may not be empty", ErrInvalidVariableName)
	}

	if len([]rune(name)) > MaxLength {
		return Name{}, fmt.Errorf("%w: %q is too long (>%d characters)", ErrInvalidVariableName, name, MaxLength)
	}

	pctx := pc.NewParseContext[rune]()

	_, _, err := namePattern(pctx, toParserTokens(name))
	if err != nil {
		return Name{}, fmt.Errorf("%w: %q must start with a letter, followed by letters, digits, or underscores", ErrInvalidVariableName, name)
	}

	return Name{name: name}, nil
}

// MustNew is like New but panics on invalid names. It is intended for names
// that are literals in the program text.
func MustNew(name string) Name {
	n, err := New(name)
	if err != nil {
		panic(err)
	}

	return n
}

// String returns the name as a plain string.
func (n Name) String() string {
	return n.name
}
