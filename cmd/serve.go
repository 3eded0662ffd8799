package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lunch-cli/internal/api"
	"github.com/sells-group/lunch-cli/internal/config"
	"github.com/sells-group/lunch-cli/internal/registry"
	"github.com/sells-group/lunch-cli/internal/scheduler"
	"github.com/sells-group/lunch-cli/internal/store"
	"github.com/sells-group/lunch-cli/internal/trigger"
	"github.com/sells-group/lunch-cli/pkg/github"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored menus and the refresh endpoint over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		schedule, _ := cmd.Flags().GetBool("schedule")
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		restaurants, err := registry.Load(cfg.Scrape.RestaurantsFile)
		if err != nil {
			return err
		}

		var st store.Store
		if schedule || cfg.Schedule.Enabled {
			env, err := initScrape(ctx, cfg)
			if err != nil {
				return err
			}
			defer env.Close()
			st = env.Store

			sched := scheduler.New(env.Pipeline, cfg.Schedule.Spec)
			if err := sched.Start(ctx); err != nil {
				return err
			}
			defer sched.Stop()
		} else {
			st, err = store.New(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		trig, closeGate, err := newTrigger(ctx, cfg.Trigger)
		if err != nil {
			return err
		}
		defer closeGate()

		srv := api.New(st, restaurants.All(), trig, api.Options{
			Location:    cfg.Scrape.Location(),
			CORSOrigins: cfg.Server.CORSOrigins,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.Bool("schedule", schedule || cfg.Schedule.Enabled))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newTrigger builds the cooldown gate and the dispatcher behind the refresh
// endpoint. The returned func closes the Redis client when one is used.
func newTrigger(ctx context.Context, c config.TriggerConfig) (*trigger.Trigger, func(), error) {
	var gate trigger.Gate = trigger.NewMemoryGate(c.Cooldown())
	closeFn := func() {}
	if c.RedisURL != "" {
		client, err := trigger.NewRedisClient(ctx, c.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		gate = trigger.NewRedisGate(client, "lunch-cli:trigger", c.Cooldown())
		closeFn = func() { _ = client.Close() }
	}

	var d trigger.Dispatcher
	switch {
	case c.GitHubToken != "":
		d = &trigger.WorkflowDispatcher{
			Client: github.NewClient(c.GitHubToken, github.WithBaseURL(c.BaseURL)),
			Request: github.DispatchRequest{
				Owner:    c.Owner,
				Repo:     c.Repo,
				Workflow: c.Workflow,
				Ref:      c.Ref,
			},
		}
	case c.Simulate:
		d = trigger.SimulatedDispatcher{}
	default:
		zap.L().Warn("no github token configured, the refresh endpoint will answer 500")
	}

	return trigger.New(gate, d, c.Cooldown()), closeFn, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().Bool("schedule", false, "also run incremental scrapes on schedule.spec")
	rootCmd.AddCommand(serveCmd)
}
