package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	router "github.com/dkeye/Assist/internal/adapters/http"
	"github.com/dkeye/Assist/internal/adapters/provider"
	"github.com/dkeye/Assist/internal/app"
	"github.com/dkeye/Assist/internal/app/dispatch"
	"github.com/dkeye/Assist/internal/app/orch"
	"github.com/dkeye/Assist/internal/config"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/dkeye/Assist/internal/metrics"
	transport "github.com/dkeye/Assist/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loader.Watch(func(c *config.Config) { setLogLevel(c.LogLevel) })
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.OpenAI.APIKey == "" {
		log.Warn().Msg("openai api key is empty, provider calls will be rejected")
	}

	collector := metrics.NewPrometheusCollector()
	reg := app.NewRegistry()

	// Provider calls outlive their connection but not the process.
	workCtx, stopWork := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWork()

	openai := provider.NewOpenAI(cfg.OpenAI, nil)
	dispatcher := dispatch.New(workCtx, openai, reg, collector, dispatch.Options{
		ContextWindow: cfg.ContextWindow,
		MaxInFlight:   cfg.MaxInFlight,
		Timeout:       cfg.OpenAI.Timeout,
	})

	o := &orch.Orchestrator{
		Registry:   reg,
		Dispatcher: dispatcher,
		Policy:     app.PolicyByName(cfg.SlowPeerPolicy),
		Metrics:    collector,
	}

	speech := &transport.SpeechHandler{
		Synth:       provider.NewPolly(provider.NewPollyClient(cfg.AWS), cfg.AWS),
		Voices:      voiceMap(cfg.Voices),
		Metrics:     collector,
		Timeout:     cfg.AWS.Timeout,
		ContentType: transport.AudioContentType(cfg.AWS.OutputFormat),
	}

	r := router.SetupRouter(ctx, cfg, router.Deps{Orch: o, Speech: speech, Metrics: collector})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Assist server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight provider calls finish until the shutdown deadline.
	done := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn().Msg("abandoning in-flight provider calls")
		stopWork()
		<-done
	}
	log.Info().Msg("Server exited gracefully")
	return nil
}

func voiceMap(m map[string]string) domain.VoiceMap {
	out := make(domain.VoiceMap, len(m))
	for k, v := range m {
		out[domain.Voice(k)] = v
	}
	return out
}
