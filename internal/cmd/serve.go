package cmd

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/provisio/internal/config"
	provserver "github.com/HendryAvila/provisio/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, cleanup, err := provserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	log.Info().
		Str("classifier", cfg.Classifier).
		Bool("journal", app.Journal != nil).
		Msg("provisio MCP server starting on stdio")

	// ServeStdio handles SIGINT/SIGTERM itself.
	return server.ServeStdio(app.MCP)
}
