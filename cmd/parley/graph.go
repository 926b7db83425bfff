package main

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <graph.yaml> [conversation]",
	Short: "Export the conversation graph as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart (graph TD) for one conversation, or for all of them when none is named.`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := file.New(args[0]).Load(context.Background())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			fmt.Fprint(out, graph.GenerateAll(g))
			return nil
		}
		c := g.FindConversation(args[1])
		if c == nil {
			return fmt.Errorf("conversation not found: %s", args[1])
		}
		fmt.Fprint(out, graph.GenerateMermaid(c, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
