package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bizvalidator/internal/analysis"
	"github.com/sells-group/bizvalidator/internal/api"
	"github.com/sells-group/bizvalidator/internal/config"
	"github.com/sells-group/bizvalidator/internal/lead"
	"github.com/sells-group/bizvalidator/internal/report"
	"github.com/sells-group/bizvalidator/internal/store"
	"github.com/sells-group/bizvalidator/pkg/anthropic"
	"github.com/sells-group/bizvalidator/pkg/hubspot"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := buildStore(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		generator := analysis.NewClaudeGenerator(
			anthropic.NewClient(cfg.Anthropic.Key),
			analysis.GeneratorConfig{
				Model:       cfg.Anthropic.Model,
				MaxTokens:   cfg.Anthropic.MaxTokens,
				Timeout:     time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second,
				Temperature: cfg.Anthropic.Temperature,
			},
		)
		orchestrator := analysis.NewOrchestrator(st, generator)
		leads := lead.NewService(hubspot.NewClient(cfg.HubSpot.Token,
			hubspot.WithRateLimit(cfg.HubSpot.RateLimit)))
		reports := report.NewService(st)

		handler := api.NewHandler(st, orchestrator, leads, reports)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.NewRouter(handler, cfg.Server.AllowedOrigins),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildStore selects the record store backend from config.
func buildStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return store.NewMemory(), nil
	case "sqlite":
		return store.NewSQLite(cfg.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
