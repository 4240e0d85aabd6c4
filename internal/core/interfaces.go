package core

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

import (
	"context"

	"github.com/dkeye/Assist/internal/domain"
)

// Provider is the completion and transcription side of the provider
// adapter. Every method may block on a network round trip and fails with a
// *domain.ProviderError.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	DescribeImage(ctx context.Context, image string) (string, error)
	DescribeImageBatch(ctx context.Context, images []string) (string, error)
	CompleteText(ctx context.Context, turns []domain.Turn) (string, error)
}

// Synthesizer turns text into encoded speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Replier delivers a frame to exactly one connection.
type Replier interface {
	SendTo(id domain.ConnID, f Frame) error
}
