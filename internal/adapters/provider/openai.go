// Package provider adapts the hosted completion, transcription and speech
// services to the core.Provider and core.Synthesizer ports.
package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dkeye/Assist/internal/config"
	"github.com/dkeye/Assist/internal/core"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/rs/zerolog/log"
)

var errNoChoices = errors.New("no choices in completion")

// OpenAI implements core.Provider on the chat completion and transcription
// endpoints. It never retries; a failed call surfaces once.
type OpenAI struct {
	client      *openai.Client
	chatModel   string
	sttModel    string
	maxTokens   int64
	temperature float64
}

var _ core.Provider = (*OpenAI)(nil)

// NewOpenAI builds the adapter. httpClient may be nil.
func NewOpenAI(cfg config.OpenAIConfig, httpClient *http.Client) *OpenAI {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAI{
		client:      &client,
		chatModel:   cfg.ChatModel,
		sttModel:    cfg.TranscriptionModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (o *OpenAI) Transcribe(ctx context.Context, audio []byte) (string, error) {
	name, ctype := audioUpload(audio)
	res, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), name, ctype),
		Model: openai.AudioModel(o.sttModel),
	})
	if err != nil {
		return "", classify(nameOpenAI, "transcribe", err)
	}
	log.Debug().Str("module", "provider.openai").Str("file", name).Int("bytes", len(audio)).Msg("transcribed")
	return res.Text, nil
}

func (o *OpenAI) DescribeImage(ctx context.Context, image string) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{
		imageMessage(singleImageInstruction, []string{image}),
	}
	// The single-image path keeps the provider's default temperature.
	return o.complete(ctx, "describe_image", msgs, false)
}

func (o *OpenAI) DescribeImageBatch(ctx context.Context, images []string) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("%w: empty image batch", domain.ErrClientInput)
	}
	msgs := []openai.ChatCompletionMessageParamUnion{
		imageMessage(imageBatchInstruction, images),
	}
	return o.complete(ctx, "describe_image_batch", msgs, true)
}

func (o *OpenAI) CompleteText(ctx context.Context, turns []domain.Turn) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	msgs = append(msgs, systemMessage(textInstruction))
	for _, t := range turns {
		msgs = append(msgs, turnMessage(t))
	}
	return o.complete(ctx, "complete_text", msgs, true)
}

func (o *OpenAI) complete(ctx context.Context, op string, msgs []openai.ChatCompletionMessageParamUnion, withTemperature bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    o.chatModel,
		Messages: msgs,
	}
	if o.maxTokens > 0 {
		params.MaxTokens = param.NewOpt(o.maxTokens)
	}
	if withTemperature {
		params.Temperature = param.NewOpt(o.temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(nameOpenAI, op, err)
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ProviderError{Provider: nameOpenAI, Op: op, Kind: domain.ProviderRejected, Err: errNoChoices}
	}
	log.Debug().Str("module", "provider.openai").Str("op", op).Int64("tokens", resp.Usage.TotalTokens).Msg("completed")
	return resp.Choices[0].Message.Content, nil
}

func systemMessage(text string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{
				OfString: param.NewOpt(text),
			},
		},
	}
}

// imageMessage puts the instruction and the images in one user turn, the
// instruction first.
func imageMessage(instruction string, images []string) openai.ChatCompletionMessageParamUnion {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(images)+1)
	parts = append(parts, openai.TextContentPart(instruction))
	for _, img := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: ImageDataURL(img),
		}))
	}
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: parts,
			},
		},
	}
}

func turnMessage(t domain.Turn) openai.ChatCompletionMessageParamUnion {
	switch t.Role {
	case domain.RoleSystem:
		return systemMessage(t.Content)
	case domain.RoleAssistant:
		return openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Content: openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(t.Content),
				},
			},
		}
	default:
		return openai.ChatCompletionMessageParamUnion{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: param.NewOpt(t.Content),
				},
			},
		}
	}
}
