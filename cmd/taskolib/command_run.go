package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/Finii/taskolib"
	"github.com/Finii/taskolib/runner"
	"github.com/Finii/taskolib/script"
	"github.com/Finii/taskolib/store"
	"github.com/Finii/taskolib/varname"
)

// RunCmd represents the run command
type RunCmd struct {
	Label string   `arg:"" help:"Label of the sequence to run"`
	Set   []string `help:"Set a context variable before the run (name=value)" short:"s"`
}

func (cmd *RunCmd) Run(ctx *Context) error {
	config, err := taskolib.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	st, err := store.New(config.StoreDir)
	if err != nil {
		return fmt.Errorf("failed to open sequence store: %w", err)
	}

	seq, err := st.Load(cmd.Label)
	if err != nil {
		return err
	}

	vars, err := parseVariables(cmd.Set)
	if err != nil {
		return err
	}

	logLevel := config.SlogLevel()
	if ctx.Verbose {
		logLevel = slog.LevelDebug
	}

	opts := &runner.Options{
		DefaultStepTimeout: config.Executor.DefaultStepTimeout,
	}

	if !ctx.Quiet {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	}

	err = runner.Execute(context.Background(), seq, vars, opts)

	// The run may have updated step execution times.
	if saveErr := st.Save(seq); saveErr != nil && !ctx.Quiet {
		color.Yellow("Could not update stored sequence: %v", saveErr)
	}

	if err != nil {
		if !ctx.Quiet {
			color.Red("Sequence %q failed: %v", cmd.Label, err)
		}

		return err
	}

	if !ctx.Quiet {
		color.Green("Sequence %q finished", cmd.Label)
		printVariables(vars)
	}

	return nil
}

// parseVariables turns name=value pairs into a variable context. Values are
// parsed as booleans or numbers when possible and kept as strings otherwise.
func parseVariables(pairs []string) (script.Variables, error) {
	vars := script.Variables{}

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid variable assignment %q: expected name=value", pair)
		}

		key, err := varname.New(name)
		if err != nil {
			return nil, fmt.Errorf("invalid variable assignment %q: %w", pair, err)
		}

		vars[key] = parseValue(value)
	}

	return vars, nil
}

func parseValue(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}

	if d, err := decimal.NewFromString(value); err == nil {
		if d.IsInteger() {
			return d.IntPart()
		}

		return d
	}

	return value
}

func printVariables(vars script.Variables) {
	if len(vars) == 0 {
		return
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name.String())
	}

	sort.Strings(names)

	fmt.Println("Final variable values:")

	for _, name := range names {
		fmt.Printf("  %s = %v\n", name, vars[varname.MustNew(name)])
	}
}
