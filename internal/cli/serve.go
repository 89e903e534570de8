package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lendfront/unirouter/internal/backend"
	"github.com/lendfront/unirouter/internal/classifier"
	"github.com/lendfront/unirouter/internal/config"
	"github.com/lendfront/unirouter/internal/gateway"
	"github.com/lendfront/unirouter/internal/health"
	"github.com/lendfront/unirouter/internal/llm"
	"github.com/lendfront/unirouter/internal/router"
	"github.com/lendfront/unirouter/internal/session"
	"github.com/lendfront/unirouter/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the unified router server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			policy := backend.PolicyFromConfig(cfg.Retry)

			// Classification model client
			gemini := llm.NewGeminiClient(cfg.Classifier.APIKey, cfg.Classifier.Model)
			cls := classifier.New(gemini, policy,
				time.Duration(cfg.Classifier.TimeoutSeconds)*time.Second, log)

			// Capability adapters
			registry := backend.NewRegistry(log)
			registry.Register(backend.NewKnowledgeAdapter(cfg.Providers.Knowledge))
			registry.Register(backend.NewDocumentAdapter(cfg.Providers.Document))
			registry.Register(backend.NewDatabaseAdapter(cfg.Providers.Database))
			registry.Register(backend.NewVisualizationAdapter(cfg.Providers.Visualization))
			registry.Register(backend.NewScopeGuardAdapter())

			// Session store (SQLite or in-memory)
			ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
			var sessions session.Store
			if cfg.Session.Store == "sqlite" {
				if err := paths.EnsureDirs(); err != nil {
					return fmt.Errorf("creating data directories: %w", err)
				}
				dbPath := filepath.Join(paths.Data, "unirouter.db")
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				sessions = store.NewSessionStore(db, ttl)
				log.Info().Str("path", dbPath).Msg("using SQLite session store")
			} else {
				sessions = session.NewMemoryStore(ttl, log)
				log.Info().Msg("using in-memory session store")
			}
			defer sessions.Close()

			// TTL sweeper
			sweep := time.Duration(cfg.Session.SweepSeconds) * time.Second
			go session.Janitor(ctx, sessions, sweep, nil)

			rt := router.New(registry, cls, sessions, policy, cfg.Limits, log)
			monitor := health.NewMonitor(registry, 5*time.Second, log)

			srv := gateway.New(cfg, rt, monitor, sessions, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}
