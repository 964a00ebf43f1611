package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/Finii/taskolib"
	"github.com/Finii/taskolib/store"
)

// ListCmd represents the list command
type ListCmd struct {
}

func (cmd *ListCmd) Run(ctx *Context) error {
	config, err := taskolib.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	st, err := store.New(config.StoreDir)
	if err != nil {
		return fmt.Errorf("failed to open sequence store: %w", err)
	}

	infos, err := st.List()
	if err != nil {
		return fmt.Errorf("failed to list sequences: %w", err)
	}

	if len(infos) == 0 {
		if !ctx.Quiet {
			color.Yellow("No sequences stored in %s", st.Dir())
		}

		return nil
	}

	for _, info := range infos {
		if ctx.Verbose {
			fmt.Printf("%-36s  %3d steps  %s\n", info.UUID, info.NumSteps, info.Label)
		} else {
			fmt.Println(info.Label)
		}
	}

	return nil
}
