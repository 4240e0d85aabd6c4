package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/Assist/internal/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "assist",
	Short: "Real-time multimodal assistant relay",
	Long: `Real-time multimodal assistant relay.

Relays WebRTC negotiation between browser peers and answers image,
audio and text requests through a hosted model provider.

Configuration is read from config/config.<CONFIG_ENV>.yaml, .env and
ASSIST_* environment variables.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default config/config.<CONFIG_ENV>.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(synthesizeCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Loader, *config.Config, error) {
	l := config.NewLoader(configFile)
	cfg, err := l.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Mode != "debug" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	setLogLevel(cfg.LogLevel)
	return l, cfg, nil
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if zerolog.GlobalLevel() != lvl {
		log.Info().Str("level", lvl.String()).Msg("log level set")
	}
	zerolog.SetGlobalLevel(lvl)
}
