package provider

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/dkeye/Assist/internal/config"
	"github.com/dkeye/Assist/internal/core"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/rs/zerolog/log"
)

// PollyClient abstracts the speech API operation used by [Polly].
// The [polly.Client] type satisfies this interface.
type PollyClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Polly implements core.Synthesizer.
type Polly struct {
	client       PollyClient
	engine       types.Engine
	languageCode types.LanguageCode
	outputFormat types.OutputFormat
}

var _ core.Synthesizer = (*Polly)(nil)

func NewPolly(client PollyClient, cfg config.AWSConfig) *Polly {
	return &Polly{
		client:       client,
		engine:       types.Engine(cfg.Engine),
		languageCode: types.LanguageCode(cfg.LanguageCode),
		outputFormat: types.OutputFormat(cfg.OutputFormat),
	}
}

// NewPollyClient builds a client for cfg.Region that never retries. Static
// keys are used when configured; without them every call fails locally
// before anything is sent.
func NewPollyClient(cfg config.AWSConfig, optFns ...func(*polly.Options)) *polly.Client {
	opts := polly.Options{
		Region:  cfg.Region,
		Retryer: aws.NopRetryer{},
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    cfg.SessionToken,
			Source:          "assist-config",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	} else {
		log.Warn().Str("module", "provider.polly").Msg("no aws credentials configured, speech requests will be rejected")
	}
	return polly.New(opts, optFns...)
}

func (p *Polly) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		VoiceId:      types.VoiceId(voiceID),
		Engine:       p.engine,
		LanguageCode: p.languageCode,
		OutputFormat: p.outputFormat,
	})
	if err != nil {
		return nil, classify(namePolly, "synthesize", err)
	}
	defer out.AudioStream.Close()

	audio, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, classify(namePolly, "synthesize", fmt.Errorf("read audio stream: %w", err))
	}
	if len(audio) == 0 {
		return nil, &domain.ProviderError{Provider: namePolly, Op: "synthesize", Kind: domain.ProviderRejected, Err: io.ErrUnexpectedEOF}
	}
	log.Debug().Str("module", "provider.polly").Str("voice", voiceID).Int("bytes", len(audio)).Msg("synthesized")
	return audio, nil
}
