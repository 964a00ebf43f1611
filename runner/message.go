// Package runner executes validated sequences: it walks the flat step list
// following the control flow encoded by the step types, evaluates step
// scripts through the script package, and reports progress on a message
// channel.
package runner

import "time"

// MessageType tags the progress messages emitted during execution.
type MessageType int

const (
	// SequenceStarted is sent once before the first step runs.
	SequenceStarted MessageType = iota
	// SequenceStopped is sent after the last step finished without error.
	SequenceStopped
	// SequenceStoppedWithError is sent when execution aborts; Text carries the cause.
	SequenceStoppedWithError
	// StepStarted is sent before a step script runs; StepIndex identifies the step.
	StepStarted
	// StepStopped is sent after a step script finished without error.
	StepStopped
	// StepStoppedWithError is sent when a step script fails; Text carries the cause.
	StepStoppedWithError
)

// String returns a short name for logging.
func (t MessageType) String() string {
	switch t {
	case SequenceStarted:
		return "sequence started"
	case SequenceStopped:
		return "sequence stopped"
	case SequenceStoppedWithError:
		return "sequence stopped with error"
	case StepStarted:
		return "step started"
	case StepStopped:
		return "step stopped"
	case StepStoppedWithError:
		return "step stopped with error"
	default:
		return "unknown"
	}
}

// Message is one progress report. StepIndex is the 0-based index of the step
// it concerns, or -1 for sequence-level messages.
type Message struct {
	Type      MessageType
	Timestamp time.Time
	StepIndex int
	Text      string
}
