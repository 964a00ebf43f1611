package taskolib

import "errors"

// Common errors used throughout the taskolib package
var (
	// ErrEmptyLabel is returned when a sequence or step label is empty.
	ErrEmptyLabel = errors.New("label may not be empty")
	// ErrLabelTooLong is returned when a label exceeds MaxLabelLength characters.
	ErrLabelTooLong = errors.New("label is too long")

	// ErrStepIndexOutOfRange indicates an index-based step access outside the sequence.
	ErrStepIndexOutOfRange = errors.New("step index out of range")

	// ErrSequenceNotFound indicates a stored sequence could not be located.
	ErrSequenceNotFound = errors.New("sequence not found in store")
	// ErrSequenceExists indicates a sequence with the same name is already stored.
	ErrSequenceExists = errors.New("sequence already exists in store")

	// ErrExecutorBusy is returned when a sequence is started while another one is still running.
	ErrExecutorBusy = errors.New("executor is still busy with another sequence")
)
