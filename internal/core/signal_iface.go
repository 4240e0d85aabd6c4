package core

import "github.com/dkeye/Assist/internal/domain"

// Frame is one serialized message on the real-time channel.
type Frame []byte

// SignalConnection abstracts the real-time transport of one peer.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []domain.ConnID
}
