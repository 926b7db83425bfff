package main

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/internal/importer"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph.yaml>",
	Short: "Check the graph for consistency",
	Long:  `Validates the graph structure and compiles every routine, reporting each failure with its location.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		g, err := file.New(args[0]).Load(context.Background())
		if err != nil {
			return err
		}

		vars, _ := cmd.Flags().GetStringToString("var")
		bindings, err := hostBindings(vars, logger, nil)
		if err != nil {
			return err
		}
		imp := importer.New(importer.WithLogger(logger), importer.WithBindings(bindings))
		res, err := imp.Import(g, cfg.Settings)
		if err != nil {
			return fmt.Errorf("validation failed:\n%w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Graph is valid: %d conversations, %d actors, %d flags\n",
			len(res.Database.Conversations), len(res.Database.Actors), res.Flags.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
