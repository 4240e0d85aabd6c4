package domain

import "strings"

// Voice is the client-facing voice selection.
type Voice string

const (
	VoiceFemale Voice = "female"
	VoiceMale   Voice = "male"
)

// VoiceMap resolves a client selection to a provider voice id.
type VoiceMap map[Voice]string

// Resolve accepts either the selection name or one of the mapped provider
// ids, case-insensitively.
func (m VoiceMap) Resolve(v string) (string, error) {
	if id, ok := m[Voice(strings.ToLower(v))]; ok {
		return id, nil
	}
	for _, id := range m {
		if strings.EqualFold(id, v) {
			return id, nil
		}
	}
	return "", ErrUnknownVoice
}
