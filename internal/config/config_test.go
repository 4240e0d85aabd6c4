package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsWithoutFile(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("PORT", "")
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, int64(50<<20), cfg.ReadLimit)
	assert.Equal(t, 5, cfg.ContextWindow)
	assert.Equal(t, "drop", cfg.SlowPeerPolicy)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.ChatModel)
	assert.Equal(t, "whisper-1", cfg.OpenAI.TranscriptionModel)
	assert.Equal(t, int64(1000), cfg.OpenAI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 1e-9)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, "generative", cfg.AWS.Engine)
	assert.Equal(t, "mp3", cfg.AWS.OutputFormat)
	assert.Equal(t, map[string]string{"female": "Ruth", "male": "Matthew"}, cfg.Voices)
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEServers[0].URLs)
}

func TestFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
port: 8080
ping_period: 20s
pong_wait: 30s
slow_peer_policy: kick
openai:
  chat_model: gpt-4o-mini
ice_servers:
  - urls: ["turn:turn.example.com:3478"]
    username: u
    credential: p
`)
	t.Setenv("ASSIST_CONTEXT_WINDOW", "3")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.PingPeriod)
	assert.Equal(t, "kick", cfg.SlowPeerPolicy)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, 3, cfg.ContextWindow)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	require.Len(t, cfg.ICEServers, 1)
	assert.Equal(t, "u", cfg.ICEServers[0].Username)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad policy", "slow_peer_policy: bogus\n"},
		{"zero window", "context_window: 0\n"},
		{"negative in flight", "max_in_flight: -1\n"},
		{"bad ice url", "ice_servers:\n  - urls: [\"http://example.com\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeConfig(t, tt.body)).Load()
			assert.Error(t, err)
		})
	}
}

func TestWatchReloads(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")
	l := NewLoader(path)
	_, err := l.Load()
	require.NoError(t, err)

	got := make(chan string, 16)
	l.Watch(func(c *Config) {
		select {
		case got <- c.LogLevel:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case lvl := <-got:
			// A truncate-then-write can be observed as two events.
			if lvl == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}
