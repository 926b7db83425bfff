package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/parley/internal/codegen"
	"github.com/aretw0/parley/internal/importer"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var genCmd = &cobra.Command{
	Use:   "gen <graph.yaml>",
	Short: "Generate Go constants for conversations, actors and flags",
	Long: `Compiles the graph and writes a Go file declaring its conversation and actor ids and the
index of every flag its routines use.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		pkg, _ := cmd.Flags().GetString("package")
		outPath, _ := cmd.Flags().GetString("out")

		g, err := file.New(args[0]).Load(context.Background())
		if err != nil {
			return err
		}
		vars, _ := cmd.Flags().GetStringToString("var")
		bindings, err := hostBindings(vars, logger, nil)
		if err != nil {
			return err
		}
		res, err := importer.New(
			importer.WithLogger(logger),
			importer.WithBindings(bindings),
			importer.WithStubFailedRoutines(cfg.StubFailedRoutines),
		).Import(g, cfg.Settings)
		if err != nil {
			return err
		}

		src, err := codegen.Generate(codegen.Input{Package: pkg, Graph: g, Flags: res.Flags.Names()})
		if err != nil {
			return err
		}
		if outPath == "" {
			fmt.Fprint(cmd.OutOrStdout(), src)
			return nil
		}
		if err := os.WriteFile(outPath, []byte(src), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		logger.Info("constants generated", "file", outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genCmd)

	genCmd.Flags().StringP("package", "p", "lines", "Package name of the generated file")
	genCmd.Flags().StringP("out", "o", "", "Output file (stdout when empty)")
}
