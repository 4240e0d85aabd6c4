package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dkeye/Assist/internal/core"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/dkeye/Assist/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const synthesisFailed = "Error with text-to-speech synthesis"

type SynthesizeRequest struct {
	Text  string `json:"text" binding:"required"`
	Voice string `json:"voice" binding:"required"`
}

// SpeechHandler serves POST /synthesize.
type SpeechHandler struct {
	Synth   core.Synthesizer
	Voices  domain.VoiceMap
	Metrics metrics.Collector
	// Timeout bounds one synthesis call; 0 means the request context only.
	Timeout time.Duration
	// ContentType of the returned audio.
	ContentType string
}

func (h *SpeechHandler) Synthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "missing or invalid text and voice")
		return
	}
	voiceID, err := h.Voices.Resolve(req.Voice)
	if err != nil {
		c.String(http.StatusBadRequest, "unsupported voice: "+req.Voice)
		return
	}

	ctx := c.Request.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	start := time.Now()
	audio, err := h.Synth.Synthesize(ctx, req.Text, voiceID)
	if err != nil {
		log.Error().Err(err).
			Str("module", "transport.http").
			Str("voice", voiceID).
			Bool("provider", domain.IsProviderError(err)).
			Msg("synthesis failed")
		h.observe("error", start, 0)
		c.String(http.StatusInternalServerError, synthesisFailed)
		return
	}
	h.observe("ok", start, len(audio))

	ct := h.ContentType
	if ct == "" {
		ct = "audio/mpeg"
	}
	c.Header("Content-Length", strconv.Itoa(len(audio)))
	c.Data(http.StatusOK, ct, audio)
}

func (h *SpeechHandler) observe(outcome string, start time.Time, size int) {
	if h.Metrics != nil {
		h.Metrics.SynthesisCompleted(outcome, time.Since(start), size)
	}
}

// AudioContentType maps the configured output format to a MIME type.
func AudioContentType(format string) string {
	switch format {
	case "ogg_vorbis", "ogg_opus":
		return "audio/ogg"
	case "pcm":
		return "audio/pcm"
	case "json":
		return "application/x-json-stream"
	default:
		return "audio/mpeg"
	}
}
