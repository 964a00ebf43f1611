package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Finii/taskolib"
	"github.com/Finii/taskolib/sequence"
	"github.com/Finii/taskolib/varname"
)

func sampleSequence(t *testing.T, label string) *sequence.Sequence {
	t.Helper()

	seq, err := sequence.New(label)
	require.NoError(t, err)

	while := sequence.NewStep(sequence.StepWhile)
	while.SetLabel("loop while i < 3")
	while.SetScript("i < 3")
	while.SetImportedVariableNames(varname.MustNew("i"))
	seq.PushBack(while)

	action := sequence.NewStep(sequence.StepAction)
	action.SetLabel("increment i")
	action.SetScript(`{"i": i + 1}`)
	action.SetTimeout(1500 * time.Millisecond)
	action.SetImportedVariableNames(varname.MustNew("i"))
	action.SetExportedVariableNames(varname.MustNew("i"))
	seq.PushBack(action)

	seq.PushBack(sequence.NewStep(sequence.StepEnd))

	return seq
}

func TestStoreSaveAndLoad(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	seq := sampleSequence(t, "count to three")
	require.NoError(t, st.Save(seq))

	loaded, err := st.Load("count to three")
	require.NoError(t, err)

	assert.Equal(t, seq.Label(), loaded.Label())
	assert.Equal(t, seq.Size(), loaded.Size())
	assert.NoError(t, loaded.IndentationError())

	for idx, want := range seq.All() {
		got, err := loaded.Step(idx)
		require.NoError(t, err)
		assert.Equal(t, want.Type(), got.Type())
		assert.Equal(t, want.Label(), got.Label())
		assert.Equal(t, want.Script(), got.Script())
		assert.Equal(t, want.Timeout(), got.Timeout())
		assert.Equal(t, want.ImportedVariableNames(), got.ImportedVariableNames())
		assert.Equal(t, want.ExportedVariableNames(), got.ExportedVariableNames())
		assert.Equal(t, want.IndentationLevel(), got.IndentationLevel())
	}
}

func TestStoreUUIDStableAcrossSaves(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	seq := sampleSequence(t, "stable id")
	require.NoError(t, st.Save(seq))

	infos, err := st.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)

	first := infos[0].UUID

	require.NoError(t, st.Save(seq))

	infos, err = st.List()
	require.NoError(t, err)
	assert.Equal(t, first, infos[0].UUID)
}

func TestStoreLoadMissing(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = st.Load("no such sequence")
	assert.ErrorIs(t, err, taskolib.ErrSequenceNotFound)
}

func TestStoreDelete(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	seq := sampleSequence(t, "short lived")
	require.NoError(t, st.Save(seq))
	require.NoError(t, st.Delete("short lived"))

	_, err = st.Load("short lived")
	assert.ErrorIs(t, err, taskolib.ErrSequenceNotFound)

	err = st.Delete("short lived")
	assert.ErrorIs(t, err, taskolib.ErrSequenceNotFound)
}

func TestStoreList(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, st.Save(sampleSequence(t, "beta")))
	require.NoError(t, st.Save(sampleSequence(t, "alpha")))

	infos, err := st.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "alpha", infos[0].Label)
	assert.Equal(t, "beta", infos[1].Label)
	assert.Equal(t, 3, infos[0].NumSteps)
	assert.NotEqual(t, infos[0].UUID, infos[1].UUID)
}

func TestStoreFilenameCollision(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	// Tab and space both escape to a space, so these labels collide on disk.
	require.NoError(t, st.Save(sampleSequence(t, "a b")))

	err = st.Save(sampleSequence(t, "a\tb"))
	assert.ErrorIs(t, err, taskolib.ErrSequenceExists)
}

func TestStoreLoadPreservesTimestamps(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	modified := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	executed := time.Date(2024, 5, 6, 12, 30, 0, 0, time.UTC)

	seq := sampleSequence(t, "timestamped")
	require.NoError(t, seq.Modify(0, func(s *sequence.Step) {
		s.SetTimeOfLastModification(modified)
		s.SetTimeOfLastExecution(executed)
	}))

	require.NoError(t, st.Save(seq))

	loaded, err := st.Load("timestamped")
	require.NoError(t, err)

	step, err := loaded.Step(0)
	require.NoError(t, err)
	assert.True(t, step.TimeOfLastModification().Equal(modified))
	assert.True(t, step.TimeOfLastExecution().Equal(executed))
}

func TestEscapeFilename(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"plain", "plain"},
		{"with space", "with space"},
		{"tab\there", "tab here"},
		{"a/b", "a$2fb"},
		{`back\slash`, "back$5cslash"},
		{"dollar$sign", "dollar$24sign"},
		{"quo\"te", "quo$22te"},
		{"uml\xc3\xa4ut", "uml$c3$a4ut"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeFilename(tt.label))
	}
}

func TestStoreRejectsUnknownStepType(t *testing.T) {
	dir := t.TempDir()

	st, err := New(dir)
	require.NoError(t, err)

	broken := "label: broken\nuuid: \"\"\nsteps:\n  - type: goto\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(broken), 0o644))

	_, err = st.Load("broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step type")
}
