package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Finii/taskolib/script"
	"github.com/Finii/taskolib/sequence"
)

// Options controls sequence execution. The zero value runs without timeout,
// messages, or logging.
type Options struct {
	// DefaultStepTimeout applies to steps without their own timeout. Zero
	// means no limit.
	DefaultStepTimeout time.Duration

	// Messages receives progress reports if non-nil. The channel is never
	// closed by the runner; sends block, so the channel should be buffered
	// or drained concurrently.
	Messages chan<- Message

	// Logger receives structured execution logs if non-nil.
	Logger *slog.Logger
}

func (o *Options) send(msg Message) {
	if o.Messages != nil {
		msg.Timestamp = time.Now()
		o.Messages <- msg
	}
}

func (o *Options) log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.New(discardHandler{})
}

// Execute runs the sequence within the given variable context. It first
// checks the syntax and fails without side effects if the structure is
// broken. Execution then follows the control flow of the steps: if/elseif/
// else branches run the first clause whose condition evaluates to true,
// while loops repeat as long as their condition holds, and a failing step
// inside a try block transfers control to the matching catch block. vars is
// mutated by steps that export variables.
func Execute(ctx context.Context, seq *sequence.Sequence, vars script.Variables, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}

	if err := seq.CheckSyntax(); err != nil {
		return err
	}

	logger := opts.log().With("sequence", seq.Label())
	logger.Info("sequence started", "steps", seq.Size())
	opts.send(Message{Type: SequenceStarted, StepIndex: -1})

	err := executeRange(ctx, seq, 0, seq.Size(), vars, opts, logger)
	if err != nil {
		logger.Error("sequence stopped with error", "error", err)
		opts.send(Message{Type: SequenceStoppedWithError, StepIndex: -1, Text: err.Error()})

		return err
	}

	logger.Info("sequence stopped")
	opts.send(Message{Type: SequenceStopped, StepIndex: -1})

	return nil
}

// findBlockEnd returns the first index in [begin, end) whose step is
// indented below minLevel, or end. Same contract as the scan used by the
// syntax checker.
func findBlockEnd(seq *sequence.Sequence, begin, end, minLevel int) int {
	for i := begin; i < end; i++ {
		step, _ := seq.Step(i)
		if step.IndentationLevel() < minLevel {
			return i
		}
	}

	return end
}

// executeRange runs the steps of the half-open range [begin, end) as one
// block body.
func executeRange(ctx context.Context, seq *sequence.Sequence, begin, end int, vars script.Variables, opts *Options, logger *slog.Logger) error {
	idx := begin

	for idx < end {
		if err := ctx.Err(); err != nil {
			return err
		}

		step, err := seq.Step(idx)
		if err != nil {
			return err
		}

		switch step.Type() {
		case sequence.StepAction:
			if _, err := runStep(ctx, seq, idx, vars, opts, logger); err != nil {
				return err
			}

			idx++
		case sequence.StepIf:
			idx, err = executeIf(ctx, seq, idx, end, vars, opts, logger)
			if err != nil {
				return err
			}
		case sequence.StepWhile:
			idx, err = executeWhile(ctx, seq, idx, end, vars, opts, logger)
			if err != nil {
				return err
			}
		case sequence.StepTry:
			idx, err = executeTry(ctx, seq, idx, end, vars, opts, logger)
			if err != nil {
				return err
			}
		default:
			// CheckSyntax guarantees clause steps only appear as block
			// boundaries, which the construct handlers consume.
			return fmt.Errorf("unexpected %s step at position %d", step.Type(), idx+1)
		}
	}

	return nil
}

// executeIf runs an IF..ELSEIF..ELSE..END construct and returns the index
// just past its END.
func executeIf(ctx context.Context, seq *sequence.Sequence, begin, end int, vars script.Variables, opts *Options, logger *slog.Logger) (int, error) {
	opener, _ := seq.Step(begin)
	level := opener.IndentationLevel() + 1

	constructEnd := begin
	for constructEnd < end {
		boundary := findBlockEnd(seq, constructEnd+1, end, level)

		constructEnd = boundary
		if boundary == end {
			break
		}

		step, _ := seq.Step(boundary)
		if step.Type() == sequence.StepEnd {
			break
		}
	}

	clause := begin
	taken := false

	for !taken {
		clauseStep, _ := seq.Step(clause)
		boundary := findBlockEnd(seq, clause+1, end, level)

		switch clauseStep.Type() {
		case sequence.StepIf, sequence.StepElseIf:
			cond, err := runStep(ctx, seq, clause, vars, opts, logger)
			if err != nil {
				return 0, err
			}

			taken = cond
		case sequence.StepElse:
			taken = true
		case sequence.StepEnd:
			return clause + 1, nil
		}

		if taken {
			if err := executeRange(ctx, seq, clause+1, boundary, vars, opts, logger); err != nil {
				return 0, err
			}
		}

		clause = boundary
	}

	return constructEnd + 1, nil
}

// executeWhile runs a WHILE..END construct and returns the index just past
// its END.
func executeWhile(ctx context.Context, seq *sequence.Sequence, begin, end int, vars script.Variables, opts *Options, logger *slog.Logger) (int, error) {
	opener, _ := seq.Step(begin)
	blockEnd := findBlockEnd(seq, begin+1, end, opener.IndentationLevel()+1)

	for {
		cond, err := runStep(ctx, seq, begin, vars, opts, logger)
		if err != nil {
			return 0, err
		}

		if !cond {
			break
		}

		if err := executeRange(ctx, seq, begin+1, blockEnd, vars, opts, logger); err != nil {
			return 0, err
		}
	}

	return blockEnd + 1, nil
}

// executeTry runs a TRY..CATCH..END construct and returns the index just
// past its END. A step error inside the try block transfers control to the
// catch block; context cancellation is never caught.
func executeTry(ctx context.Context, seq *sequence.Sequence, begin, end int, vars script.Variables, opts *Options, logger *slog.Logger) (int, error) {
	opener, _ := seq.Step(begin)
	level := opener.IndentationLevel() + 1

	catchIdx := findBlockEnd(seq, begin+1, end, level)
	blockEnd := findBlockEnd(seq, catchIdx+1, end, level)

	err := executeRange(ctx, seq, begin+1, catchIdx, vars, opts, logger)
	if err != nil {
		if ctx.Err() != nil {
			return 0, err
		}

		logger.Info("fault caught by try block", "step", begin+1, "error", err)

		if err := executeRange(ctx, seq, catchIdx+1, blockEnd, vars, opts, logger); err != nil {
			return 0, err
		}
	}

	return blockEnd + 1, nil
}

// runStep evaluates one step script with its timeout applied and returns the
// boolean result.
func runStep(ctx context.Context, seq *sequence.Sequence, idx int, vars script.Variables, opts *Options, logger *slog.Logger) (bool, error) {
	step, err := seq.Step(idx)
	if err != nil {
		return false, err
	}

	timeout := step.Timeout()
	if timeout == 0 {
		timeout = opts.DefaultStepTimeout
	}

	stepCtx := ctx

	if timeout > 0 {
		var cancel context.CancelFunc

		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts.send(Message{Type: StepStarted, StepIndex: idx})
	logger.Debug("step started", "step", idx+1, "type", step.Type().String())

	result, err := script.ExecuteStep(stepCtx, &step, vars)

	_ = seq.Modify(idx, func(s *sequence.Step) {
		s.SetTimeOfLastExecution(time.Now())
	})

	if err != nil {
		err = fmt.Errorf("step %d: %w", idx+1, err)
		opts.send(Message{Type: StepStoppedWithError, StepIndex: idx, Text: err.Error()})
		logger.Debug("step stopped with error", "step", idx+1, "error", err)

		return false, err
	}

	opts.send(Message{Type: StepStopped, StepIndex: idx})
	logger.Debug("step stopped", "step", idx+1, "result", result)

	return result, nil
}

// discardHandler drops all records. Used when no logger is configured.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
