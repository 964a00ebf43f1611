package runner

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/Finii/taskolib"
	"github.com/Finii/taskolib/script"
	"github.com/Finii/taskolib/sequence"
)

func waitIdle(t *testing.T, e *Executor, seq *sequence.Sequence) {
	t.Helper()

	deadline := time.After(5 * time.Second)

	for e.Update(seq) {
		select {
		case <-deadline:
			t.Fatal("executor did not finish in time")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestExecutorRunAndCollect(t *testing.T) {
	seq := buildSequence(t,
		scriptStep(sequence.StepAction, `{"x": 1}`, nil, []string{"x"}),
		scriptStep(sequence.StepAction, `{"y": 2}`, nil, []string{"y"}),
	)

	e := NewExecutor(nil, nil)

	err := e.RunAsynchronously(seq, script.Variables{})
	assert.NoError(t, err)

	waitIdle(t, e, seq)

	assert.NoError(t, e.Err())
	assert.False(t, e.IsBusy())

	// Update mirrors the execution timestamps into the caller's copy.
	for idx := range seq.Size() {
		step, err := seq.Step(idx)
		assert.NoError(t, err)
		assert.False(t, step.TimeOfLastExecution().IsZero())
	}
}

func TestExecutorReportsRunError(t *testing.T) {
	seq := buildSequence(t,
		scriptStep(sequence.StepAction, `no_such_variable`, nil, nil),
	)

	e := NewExecutor(nil, nil)

	assert.NoError(t, e.RunAsynchronously(seq, script.Variables{}))
	waitIdle(t, e, seq)

	assert.Error(t, e.Err())
	assert.IsError(t, e.Err(), script.ErrScript)
}

func TestExecutorRejectsConcurrentRun(t *testing.T) {
	seq := buildSequence(t,
		scriptStep(sequence.StepWhile, `true`, nil, nil),
		scriptStep(sequence.StepAction, "", nil, nil),
		scriptStep(sequence.StepEnd, "", nil, nil),
	)

	e := NewExecutor(nil, nil)

	assert.NoError(t, e.RunAsynchronously(seq, script.Variables{}))
	assert.True(t, e.IsBusy())

	err := e.RunAsynchronously(seq, script.Variables{})
	assert.IsError(t, err, taskolib.ErrExecutorBusy)

	e.Cancel()
	assert.False(t, e.IsBusy())

	// The executor is reusable after cancellation.
	short := buildSequence(t,
		scriptStep(sequence.StepAction, `{"x": 1}`, nil, []string{"x"}),
	)
	assert.NoError(t, e.RunAsynchronously(short, script.Variables{}))
	waitIdle(t, e, short)
	assert.NoError(t, e.Err())
}

func TestExecutorIdleOperations(t *testing.T) {
	e := NewExecutor(nil, nil)

	assert.False(t, e.IsBusy())
	e.Cancel()

	seq := buildSequence(t,
		scriptStep(sequence.StepAction, "", nil, nil),
	)
	assert.False(t, e.Update(seq))
}

func TestExecutorRunsOnCopy(t *testing.T) {
	seq := buildSequence(t,
		scriptStep(sequence.StepWhile, `true`, nil, nil),
		scriptStep(sequence.StepAction, "", nil, nil),
		scriptStep(sequence.StepEnd, "", nil, nil),
	)

	e := NewExecutor(nil, nil)
	assert.NoError(t, e.RunAsynchronously(seq, script.Variables{}))

	// Mutating the caller's sequence must not disturb the running copy.
	seq.PopBack()
	assert.True(t, e.IsBusy())

	e.Cancel()
}

func TestExecutorHonorsConfig(t *testing.T) {
	config := &taskolib.Config{}
	config.Executor.MessageBuffer = 4
	config.Executor.DefaultStepTimeout = time.Second

	e := NewExecutor(config, nil)
	assert.Equal(t, 4, e.messageBuffer)
	assert.Equal(t, time.Second, e.defaultStepTimeout)
}
