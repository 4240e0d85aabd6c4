package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/Assist/internal/adapters/provider"
)

var (
	synthVoice  string
	synthOutput string
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <text>",
	Short: "Synthesize speech once and write the audio to a file",
	Long: `Synthesize speech once with the configured speech provider.

Useful to check AWS credentials and voice settings without a browser.

Examples:
  assist synthesize "Hello there" --voice female -o hello.mp3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		voiceID, err := voiceMap(cfg.Voices).Resolve(synthVoice)
		if err != nil {
			return fmt.Errorf("voice %q: %w", synthVoice, err)
		}

		ctx := cmd.Context()
		if cfg.AWS.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.AWS.Timeout)
			defer cancel()
		}

		synth := provider.NewPolly(provider.NewPollyClient(cfg.AWS), cfg.AWS)
		audio, err := synth.Synthesize(ctx, args[0], voiceID)
		if err != nil {
			return err
		}
		if err := os.WriteFile(synthOutput, audio, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", synthOutput, err)
		}
		log.Info().Str("voice", voiceID).Int("bytes", len(audio)).Str("file", synthOutput).Msg("speech written")
		return nil
	},
}

func init() {
	synthesizeCmd.Flags().StringVar(&synthVoice, "voice", "female", "voice selection or provider voice id")
	synthesizeCmd.Flags().StringVarP(&synthOutput, "output", "o", "speech.mp3", "output file")
}
