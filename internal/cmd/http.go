package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HendryAvila/provisio/internal/config"
	"github.com/HendryAvila/provisio/internal/httpapi"
	provserver "github.com/HendryAvila/provisio/internal/server"
)

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Start the HTTP API (REST endpoints plus MCP at /mcp)",
	RunE:  runHTTP,
}

func init() {
	httpCmd.Flags().String("addr", config.DefaultHTTPAddr, "listen address")
	httpCmd.Flags().Float64("rate-limit", 0, "requests per second per session (0 disables)")
	_ = viper.BindPFlag(config.KeyHTTPAddr, httpCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag(config.KeySessionRateLimit, httpCmd.Flags().Lookup("rate-limit"))
	rootCmd.AddCommand(httpCmd)
}

func runHTTP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, span := tracer.Start(ctx, "http")
	defer span.End()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, cleanup, err := provserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	api := httpapi.New(app.Orchestrator,
		httpapi.WithRateLimit(cfg.SessionRateLimit, cfg.SessionRateBurst),
		httpapi.WithMCPHandler(server.NewStreamableHTTPServer(app.MCP)),
	)

	log.Info().
		Str("classifier", cfg.Classifier).
		Bool("journal", app.Journal != nil).
		Float64("rate_limit", cfg.SessionRateLimit).
		Dur("session_idle_ttl", cfg.SessionIdleTTL).
		Msg("provisio HTTP API starting")

	return api.ListenAndServe(ctx, cfg.HTTPAddr)
}
