package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Finii/taskolib"
	"github.com/Finii/taskolib/script"
	"github.com/Finii/taskolib/sequence"
)

// Executor runs one sequence at a time in a background goroutine. It works
// on its own copy of the sequence; callers observe progress by draining the
// message channel through Update.
type Executor struct {
	defaultStepTimeout time.Duration
	messageBuffer      int
	logger             *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	messages chan Message
	err      error
}

// NewExecutor constructs an idle executor. config may be nil, in which case
// defaults apply and logging is disabled.
func NewExecutor(config *taskolib.Config, logger *slog.Logger) *Executor {
	e := &Executor{messageBuffer: 32}

	if config != nil {
		e.defaultStepTimeout = config.Executor.DefaultStepTimeout

		if config.Executor.MessageBuffer > 0 {
			e.messageBuffer = config.Executor.MessageBuffer
		}
	}

	e.logger = logger

	return e
}

// RunAsynchronously starts executing a copy of seq with a copy of vars in a
// background goroutine. It fails with taskolib.ErrExecutorBusy if a previous
// run has not finished and not been collected by Update yet.
func (e *Executor) RunAsynchronously(seq *sequence.Sequence, vars script.Variables) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done != nil {
		return taskolib.ErrExecutorBusy
	}

	ctx, cancel := context.WithCancel(context.Background())

	e.cancel = cancel
	e.done = make(chan struct{})
	e.messages = make(chan Message, e.messageBuffer)
	e.err = nil

	runSeq := seq.Clone()
	runVars := vars.Clone()

	opts := &Options{
		DefaultStepTimeout: e.defaultStepTimeout,
		Messages:           e.messages,
		Logger:             e.logger,
	}

	go func(done chan struct{}, messages chan Message) {
		err := Execute(ctx, runSeq, runVars, opts)

		e.mu.Lock()
		e.err = err
		e.mu.Unlock()

		close(messages)
		close(done)
	}(e.done, e.messages)

	return nil
}

// IsBusy reports whether a sequence is currently running.
func (e *Executor) IsBusy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done == nil {
		return false
	}

	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// Cancel aborts a running sequence and waits for the execution goroutine to
// finish. Calling Cancel on an idle executor is a no-op.
func (e *Executor) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	messages := e.messages
	e.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()

	if messages != nil {
		for range messages {
			// discard pending messages so the goroutine can finish
		}
	}

	if done != nil {
		<-done
	}

	e.finish()
}

// Update drains pending messages, applies step execution timestamps to the
// caller's sequence, and reports whether the executor is still busy. Once
// Update returns false the executor is idle again and Err returns the
// outcome of the finished run.
func (e *Executor) Update(seq *sequence.Sequence) bool {
	e.mu.Lock()
	messages := e.messages
	done := e.done
	e.mu.Unlock()

	if messages == nil {
		return false
	}

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				e.finish()
				return false
			}

			applyMessage(seq, msg)
		default:
			select {
			case <-done:
				// goroutine finished; drain the rest on the next call
				return true
			default:
				return true
			}
		}
	}
}

// Err returns the outcome of the last finished run.
func (e *Executor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.err
}

func (e *Executor) finish() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancel = nil
	e.done = nil
	e.messages = nil
}

// applyMessage mirrors execution progress into the caller's copy of the
// sequence.
func applyMessage(seq *sequence.Sequence, msg Message) {
	if msg.StepIndex < 0 || msg.StepIndex >= seq.Size() {
		return
	}

	switch msg.Type {
	case StepStopped, StepStoppedWithError:
		_ = seq.Modify(msg.StepIndex, func(s *sequence.Step) {
			s.SetTimeOfLastExecution(msg.Timestamp)
		})
	}
}
