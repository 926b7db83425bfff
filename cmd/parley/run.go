package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <graph.yaml> <conversation>",
	Short: "Play a conversation in the terminal",
	Long: `Starts the conversation and prints what the actors say. Choices are read from standard input,
either as the number of a listed option or, in JSON mode, as a node id.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		watchMode, _ := cmd.Flags().GetBool("watch")
		plain, _ := cmd.Flags().GetBool("plain")

		hooks := domain.LifecycleHooks{}
		if cfg.LogLevel == "debug" {
			hooks = observability.LogHooks(logger)
		}
		relay := &runner.Relay{}
		eng, err := newEngine(cmd, args[0], cfg, logger, hooks, relay)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var factory runner.SessionFactory
		if jsonMode {
			factory = func(p runner.Poster) runner.Session {
				return runner.NewJSONListener(p, os.Stdin, os.Stdout)
			}
		} else {
			var opts []runner.TextListenerOption
			if !plain && tui.IsTerminal(os.Stdout) {
				tui.PrintBanner(os.Stdout)
				opts = append(opts,
					runner.WithRenderer(tui.NewRenderer()),
					runner.WithNameStyler(tui.NewNameStyler()),
				)
			}
			factory = func(p runner.Poster) runner.Session {
				return runner.NewTextListener(p, os.Stdin, os.Stdout, opts...)
			}
		}

		r := runner.NewRunner(eng,
			runner.WithLogger(logger),
			runner.WithWatch(watchMode),
			runner.WithRelay(relay),
		)
		if err := r.Run(ctx, args[1], factory); err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON events out, choices in)")
	runCmd.Flags().BoolP("watch", "w", false, "Reload the graph and restart when the file changes")
	runCmd.Flags().Bool("plain", false, "Disable colours and markdown rendering")
}
