package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "seed [FILE]",
		Short: "Import artists, genres and records from a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !demo && len(args) == 0 {
				return fmt.Errorf("a seed file is required unless --demo is set")
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Get().Source.Driver == "memory" {
				return fmt.Errorf("the memory driver does not persist imports")
			}

			var stats any
			if demo {
				stats, err = a.importing.ImportDemo(ctx)
			} else {
				stats, err = a.importing.ImportFile(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return outputJSON(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().BoolVar(&demo, "demo", false, "Import the bundled demo collection")
	return cmd
}
