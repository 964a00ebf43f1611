// Package taskolib provides building blocks for automation sequences: typed
// steps with embedded scripts, structural validation of their nesting,
// execution with control flow, and file-based persistence.
package taskolib

const (
	// MaxIndentationLevel is the deepest nesting allowed for steps inside a
	// sequence. The indentation pass clamps at this level and records an
	// error instead of going deeper.
	MaxIndentationLevel = 20

	// MaxLabelLength is the maximum number of characters allowed for step
	// and sequence labels.
	MaxLabelLength = 128
)
