// Package cmd implements the provisio command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HendryAvila/provisio/internal/config"
	"github.com/HendryAvila/provisio/internal/server"
	"github.com/HendryAvila/provisio/internal/telemetry"
)

var tracer = telemetry.Tracer("github.com/HendryAvila/provisio/internal/cmd")

var (
	otelShutdown func(context.Context) error

	// Version info injected via ldflags at build time.
	Commit    = "none"
	BuildDate = "unknown"

	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
	otelFlag  bool
)

// resolvedVersion returns server.Version unless it is "dev" and the Go
// build info carries a real module version (go install ...@vX.Y.Z).
func resolvedVersion() string {
	if server.Version != "dev" {
		return server.Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return server.Version
}

var rootCmd = &cobra.Command{
	Use:   "provisio",
	Short: "Guided, confirmation-gated platform provisioning",
	Long: `provisio is a conversational provisioning assistant.

It walks an operator through platform setup one confirmed step at a time:
- Capability gating: only steps whose prerequisites are met are offered
- Nothing runs without an explicit yes
- Stale confirmations are re-checked and rejected
- MCP (stdio) and HTTP transports over the same engine`,
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()

		enabled := otelFlag || viper.GetBool(config.KeyOTel)
		shutdown, err := telemetry.Setup("provisio", resolvedVersion(), enabled, os.Stderr)
		if err != nil {
			return fmt.Errorf("initializing OpenTelemetry: %w", err)
		}
		otelShutdown = shutdown
		return nil
	},
}

// setupLogging configures the global zerolog logger. Logs always go to
// stderr: stdout belongs to the MCP stdio transport.
func setupLogging() {
	level, err := zerolog.ParseLevel(viper.GetString(config.KeyLogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if viper.GetString(config.KeyLogFormat) == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().
			Timestamp().
			Logger()
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./provisio.config.yaml or ~/.provisio/provisio.config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format (console, json)")
	rootCmd.PersistentFlags().BoolVar(&otelFlag, "otel", false, "enable OpenTelemetry tracing (spans to stderr)")
	rootCmd.PersistentFlags().String("journal", "", "journal database path, ':memory:' or 'off'")
	rootCmd.PersistentFlags().String("classifier", "", "intent classifier (auto, openai, keyword)")

	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag(config.KeyOTel, rootCmd.PersistentFlags().Lookup("otel"))
	_ = viper.BindPFlag(config.KeyJournalPath, rootCmd.PersistentFlags().Lookup("journal"))
	_ = viper.BindPFlag(config.KeyClassifier, rootCmd.PersistentFlags().Lookup("classifier"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".provisio"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("provisio.config")
		viper.SetConfigType("yaml")
	}

	// A missing default config file is fine; a broken one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "WARNING: reading config: %v\n", err)
		}
	}
}

// Execute runs the root command and flushes telemetry on exit.
func Execute() error {
	err := rootCmd.Execute()
	if otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(ctx)
	}
	return err
}
