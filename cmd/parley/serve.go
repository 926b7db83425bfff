package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/parley"
	httpAdapter "github.com/aretw0/parley/pkg/adapters/http"
	redisAdapter "github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/control"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/runner"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <graph.yaml>",
	Short: "Run conversations behind an HTTP control surface",
	Long: `Drives the engine on a fixed frame and exposes health, running conversations, flags and
Prometheus metrics over HTTP. Conversations named with --start are played without a user.
When a Redis address is configured, raised flags are broadcast to every parley process.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("redis") {
			cfg.Redis.Addr, _ = cmd.Flags().GetString("redis")
		}
		starts, _ := cmd.Flags().GetStringSlice("start")
		watchMode, _ := cmd.Flags().GetBool("watch")

		httpAdapter.Version = Version
		metrics := observability.NewMetrics()
		hooks := observability.Combine(observability.LogHooks(logger), metrics.Hooks())
		relay := &runner.Relay{}
		eng, err := newEngine(cmd, args[0], cfg, logger, hooks, relay)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		driver := runner.NewDriver(eng, runner.WithDriverLogger(logger))
		relay.Attach(driver)
		driverErr := make(chan error, 1)
		go func() { driverErr <- driver.Run(ctx) }()

		startAll := func() error {
			for _, id := range starts {
				if _, err := eng.Start(id, runner.NewAutoListener(logger)); err != nil {
					return err
				}
			}
			return nil
		}
		if err := driver.Call(ctx, startAll); err != nil {
			return fmt.Errorf("failed to start conversations: %w", err)
		}

		ctrlOpts := []control.Option{control.WithLogger(logger)}
		if cfg.Redis.Addr != "" {
			client := backend.NewClient(&backend.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()

			busOpts := []redisAdapter.BusOption{redisAdapter.WithLogger(logger)}
			if cfg.Redis.Channel != "" {
				busOpts = append(busOpts, redisAdapter.WithChannel(cfg.Redis.Channel))
			}
			bus := redisAdapter.NewFlagBus(client, busOpts...)
			sub, err := bus.Subscribe(ctx, func(flag string) {
				_ = driver.Post(func() { raiseFlag(eng, flag, logger) })
			})
			if err != nil {
				return err
			}
			defer sub.Close()
			ctrlOpts = append(ctrlOpts, control.WithPublisher(bus))
		}

		if watchMode {
			changes, err := eng.Watch(ctx)
			if err != nil {
				return err
			}
			go func() {
				for range changes {
					err := driver.Call(ctx, func() error {
						if err := eng.Reload(ctx); err != nil {
							return err
						}
						return startAll()
					})
					if err != nil {
						logger.Error("reload failed", "err", err)
					}
				}
			}()
		}

		handler := httpAdapter.NewHandler(control.New(eng, driver, ctrlOpts...),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(metrics.Handler()),
		)
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", srv.Addr, "graph", args[0])
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case err := <-driverErr:
			return fmt.Errorf("driver stopped: %w", err)
		case <-ctx.Done():
			logger.Info("shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		<-driverErr
		return nil
	},
}

// raiseFlag sets a flag received from the bus. Runs on the driver goroutine.
func raiseFlag(eng *parley.Engine, name string, logger *slog.Logger) {
	idx, ok := eng.Flag(name)
	if !ok {
		logger.Warn("ignoring unknown flag", "flag", name)
		return
	}
	eng.SetFlagForAll(idx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("redis", "", "Redis address for the flag bus")
	serveCmd.Flags().StringSlice("start", nil, "Conversations to play without a user")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the graph when the file changes")
}
