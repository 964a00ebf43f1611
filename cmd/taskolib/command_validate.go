package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/Finii/taskolib"
	"github.com/Finii/taskolib/sequence"
	"github.com/Finii/taskolib/store"
)

var ErrValidationFailed = errors.New("validation failed")

// ValidateCmd represents the validate command
type ValidateCmd struct {
	Labels []string `arg:"" optional:"" help:"Labels of the sequences to check (default: all stored sequences)"`
}

func (cmd *ValidateCmd) Run(ctx *Context) error {
	config, err := taskolib.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	st, err := store.New(config.StoreDir)
	if err != nil {
		return fmt.Errorf("failed to open sequence store: %w", err)
	}

	labels := cmd.Labels
	if len(labels) == 0 {
		infos, err := st.List()
		if err != nil {
			return fmt.Errorf("failed to list sequences: %w", err)
		}

		for _, info := range infos {
			labels = append(labels, info.Label)
		}
	}

	failed := 0

	for _, label := range labels {
		seq, err := st.Load(label)
		if err != nil {
			failed++

			if !ctx.Quiet {
				color.Red("%s: %v", label, err)
			}

			continue
		}

		if err := seq.CheckSyntax(); err != nil {
			failed++

			if !ctx.Quiet {
				color.Red("%s: %v", label, err)
			}

			if ctx.Verbose {
				printSteps(seq)
			}

			continue
		}

		if !ctx.Quiet {
			color.Green("%s: OK (%d steps)", label, seq.Size())
		}

		if ctx.Verbose {
			printSteps(seq)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d sequences", ErrValidationFailed, failed, len(labels))
	}

	return nil
}

// printSteps renders the step list with one indented line per step.
func printSteps(seq *sequence.Sequence) {
	for idx, step := range seq.All() {
		indent := strings.Repeat("    ", step.IndentationLevel())

		line := fmt.Sprintf("  %3d: %s%s", idx+1, indent, strings.ToUpper(step.Type().String()))
		if step.Label() != "" {
			line += " " + step.Label()
		}

		fmt.Println(line)
	}
}
