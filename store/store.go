// Package store persists sequences as YAML documents under a base
// directory, one file per sequence. Labels may contain characters that are
// unsafe in filenames, so filenames are derived from an escaped form of the
// label while the document itself keeps the exact label.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/Finii/taskolib"
	"github.com/Finii/taskolib/sequence"
	"github.com/Finii/taskolib/varname"
)

const fileExtension = ".yaml"

// Store reads and writes sequences below a base directory.
type Store struct {
	dir string
}

// Info describes one stored sequence without loading its steps into a
// Sequence.
type Info struct {
	Label    string
	UUID     uuid.UUID
	NumSteps int
}

// New opens a store rooted at dir, creating the directory if necessary.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store: base directory must not be empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the base directory of the store.
func (st *Store) Dir() string {
	return st.dir
}

// Save writes seq to the store, overwriting a previous version of the same
// sequence. The sequence keeps its UUID across saves; a fresh one is
// assigned on first save. Save fails with taskolib.ErrSequenceExists if the
// escaped filename is already taken by a sequence with a different label.
func (st *Store) Save(seq *sequence.Sequence) error {
	path := st.path(seq.Label())

	id := uuid.New()

	previous, err := readDocument(path)
	switch {
	case err == nil:
		if previous.Label != seq.Label() {
			return fmt.Errorf("%w: file %s already holds sequence %q",
				taskolib.ErrSequenceExists, filepath.Base(path), previous.Label)
		}

		if parsed, err := uuid.Parse(previous.UUID); err == nil {
			id = parsed
		}
	case errors.Is(err, fs.ErrNotExist):
		// first save
	default:
		return err
	}

	doc := documentFromSequence(seq, id)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: marshal sequence %q: %w", seq.Label(), err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	return nil
}

// Load reads the sequence with the given label. The loaded sequence has its
// indentation recomputed from the stored step order.
func (st *Store) Load(label string) (*sequence.Sequence, error) {
	doc, err := readDocument(st.path(label))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", taskolib.ErrSequenceNotFound, label)
		}

		return nil, err
	}

	return doc.toSequence()
}

// Delete removes the stored sequence with the given label.
func (st *Store) Delete(label string) error {
	err := os.Remove(st.path(label))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %q", taskolib.ErrSequenceNotFound, label)
		}

		return fmt.Errorf("store: %w", err)
	}

	return nil
}

// List returns infos for all stored sequences, sorted by label.
func (st *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	var infos []Info

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExtension) {
			continue
		}

		doc, err := readDocument(filepath.Join(st.dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		info := Info{Label: doc.Label, NumSteps: len(doc.Steps)}

		if parsed, err := uuid.Parse(doc.UUID); err == nil {
			info.UUID = parsed
		}

		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Label < infos[j].Label })

	return infos, nil
}

func (st *Store) path(label string) string {
	return filepath.Join(st.dir, escapeFilename(label)+fileExtension)
}

// escapeFilename maps a label onto a safe filename. Control characters
// become spaces; path separators, shell metacharacters, and non-ASCII bytes
// are written as '$' followed by two hex digits.
func escapeFilename(label string) string {
	const badCharacters = `/\:?*"'<>|$&`

	var out strings.Builder

	for i := 0; i < len(label); i++ {
		c := label[i]

		switch {
		case c <= 32:
			out.WriteByte(' ')
		case c > 127 || strings.IndexByte(badCharacters, c) >= 0:
			fmt.Fprintf(&out, "$%02x", c)
		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}

// document is the YAML form of a stored sequence.
type document struct {
	Label string         `yaml:"label"`
	UUID  string         `yaml:"uuid"`
	Steps []stepDocument `yaml:"steps"`
}

type stepDocument struct {
	Type             string    `yaml:"type"`
	Label            string    `yaml:"label,omitempty"`
	Script           string    `yaml:"script,omitempty"`
	TimeoutMS        int64     `yaml:"timeout_ms,omitempty"`
	Imports          []string  `yaml:"imports,omitempty"`
	Exports          []string  `yaml:"exports,omitempty"`
	LastModification time.Time `yaml:"last_modification,omitempty"`
	LastExecution    time.Time `yaml:"last_execution,omitempty"`
}

func readDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc document

	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", filepath.Base(path), err)
	}

	return &doc, nil
}

func documentFromSequence(seq *sequence.Sequence, id uuid.UUID) *document {
	doc := &document{
		Label: seq.Label(),
		UUID:  id.String(),
		Steps: make([]stepDocument, 0, seq.Size()),
	}

	for _, step := range seq.All() {
		doc.Steps = append(doc.Steps, stepDocument{
			Type:             step.Type().String(),
			Label:            step.Label(),
			Script:           step.Script(),
			TimeoutMS:        step.Timeout().Milliseconds(),
			Imports:          nameStrings(step.ImportedVariableNames()),
			Exports:          nameStrings(step.ExportedVariableNames()),
			LastModification: step.TimeOfLastModification(),
			LastExecution:    step.TimeOfLastExecution(),
		})
	}

	return doc
}

func (doc *document) toSequence() (*sequence.Sequence, error) {
	seq, err := sequence.New(doc.Label)
	if err != nil {
		return nil, fmt.Errorf("store: sequence %q: %w", doc.Label, err)
	}

	for i, stepDoc := range doc.Steps {
		typ, ok := sequence.ParseStepType(stepDoc.Type)
		if !ok {
			return nil, fmt.Errorf("store: sequence %q: step %d: unknown step type %q",
				doc.Label, i+1, stepDoc.Type)
		}

		step := sequence.NewStep(typ)
		step.SetLabel(stepDoc.Label)
		step.SetScript(stepDoc.Script)
		step.SetTimeout(time.Duration(stepDoc.TimeoutMS) * time.Millisecond)

		imports, err := parseNames(stepDoc.Imports)
		if err != nil {
			return nil, fmt.Errorf("store: sequence %q: step %d: %w", doc.Label, i+1, err)
		}
		step.SetImportedVariableNames(imports...)

		exports, err := parseNames(stepDoc.Exports)
		if err != nil {
			return nil, fmt.Errorf("store: sequence %q: step %d: %w", doc.Label, i+1, err)
		}
		step.SetExportedVariableNames(exports...)

		// Timestamps last, so the setters above cannot overwrite them.
		step.SetTimeOfLastModification(stepDoc.LastModification)
		step.SetTimeOfLastExecution(stepDoc.LastExecution)

		seq.PushBack(step)
	}

	return seq, nil
}

func nameStrings(names []varname.Name) []string {
	if len(names) == 0 {
		return nil
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name.String())
	}

	return out
}

func parseNames(raw []string) ([]varname.Name, error) {
	names := make([]varname.Name, 0, len(raw))

	for _, s := range raw {
		name, err := varname.New(s)
		if err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, nil
}
