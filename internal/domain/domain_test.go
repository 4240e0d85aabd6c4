package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoiceMapResolve(t *testing.T) {
	m := VoiceMap{VoiceFemale: "Ruth", VoiceMale: "Matthew"}

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"female", "Ruth", false},
		{"Male", "Matthew", false},
		{"ruth", "Ruth", false},
		{"Matthew", "Matthew", false},
		{"robot", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := m.Resolve(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownVoice, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestProviderErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("describe: %w", &ProviderError{Provider: "openai", Op: "chat", Kind: ProviderNetwork, Err: cause})

	assert.True(t, IsProviderError(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsProviderError(cause))
}

func TestEventClassification(t *testing.T) {
	for _, e := range []EventType{EventOffer, EventAnswer, EventICECandidate} {
		assert.True(t, e.IsSignaling(), e)
		assert.False(t, e.IsRequest(), e)
	}
	for _, e := range []EventType{EventImage, EventImages, EventAudio, EventMessage} {
		assert.True(t, e.IsRequest(), e)
		assert.False(t, e.IsSignaling(), e)
	}
	assert.False(t, EventResponse.IsRequest())
	assert.False(t, EventResponse.IsSignaling())
}
