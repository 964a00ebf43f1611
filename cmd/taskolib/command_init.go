package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/Finii/taskolib"
	"github.com/Finii/taskolib/sequence"
	"github.com/Finii/taskolib/store"
	"github.com/Finii/taskolib/varname"
)

const sampleConfig = `# taskolib configuration
store_dir: sequences
log_level: info
executor:
  default_step_timeout: 10s
  message_buffer: 32
`

// InitCmd represents the init command
type InitCmd struct {
	Example bool `help:"Also store an example sequence"`
}

func (cmd *InitCmd) Run(ctx *Context) error {
	if ctx.Verbose {
		color.Blue("Initializing taskolib project")
	}

	if _, err := os.Stat(ctx.Config); os.IsNotExist(err) {
		if err := os.WriteFile(ctx.Config, []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("failed to write configuration: %w", err)
		}

		if ctx.Verbose {
			color.Green("Created configuration file: %s", ctx.Config)
		}
	} else if ctx.Verbose {
		color.Yellow("Configuration file %s already exists, keeping it", ctx.Config)
	}

	config, err := taskolib.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	st, err := store.New(config.StoreDir)
	if err != nil {
		return fmt.Errorf("failed to create sequence store: %w", err)
	}

	if ctx.Verbose {
		color.Green("Created sequence store: %s", st.Dir())
	}

	if cmd.Example {
		seq, err := exampleSequence()
		if err != nil {
			return err
		}

		if err := st.Save(seq); err != nil {
			return fmt.Errorf("failed to store example sequence: %w", err)
		}

		if ctx.Verbose {
			color.Green("Stored example sequence: %s", seq.Label())
		}
	}

	if !ctx.Quiet {
		color.Green("taskolib project initialized successfully")
		fmt.Println("\nNext steps:")
		fmt.Printf("1. Edit %s to adjust store location and timeouts\n", ctx.Config)
		fmt.Println("2. Place sequence files in the store directory")
		fmt.Println("3. Run 'taskolib validate' to check their structure")
	}

	return nil
}

// exampleSequence builds a small counting loop to demonstrate the stored
// file format.
func exampleSequence() (*sequence.Sequence, error) {
	seq, err := sequence.New("count to three")
	if err != nil {
		return nil, err
	}

	iName := varname.MustNew("i")

	while := sequence.NewStep(sequence.StepWhile)
	while.SetLabel("repeat until i reaches 3")
	while.SetScript("i < 3")
	while.SetImportedVariableNames(iName)
	seq.PushBack(while)

	action := sequence.NewStep(sequence.StepAction)
	action.SetLabel("increment i")
	action.SetScript(`{"i": i + 1}`)
	action.SetImportedVariableNames(iName)
	action.SetExportedVariableNames(iName)
	seq.PushBack(action)

	seq.PushBack(sequence.NewStep(sequence.StepEnd))

	return seq, nil
}
