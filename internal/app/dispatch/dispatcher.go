package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Assist/internal/core"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/dkeye/Assist/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/semaphore"
)

// Generic replies; provider detail never reaches a client.
var failureText = map[domain.EventType]string{
	domain.EventMessage: "Error processing request",
	domain.EventImage:   "Error processing image data",
	domain.EventImages:  "Error processing images data",
	domain.EventAudio:   "Error processing audio data",
}

// FailureText returns the client-facing message for a failed request.
func FailureText(kind domain.EventType) string {
	if s, ok := failureText[kind]; ok {
		return s
	}
	return "Error processing request"
}

type Options struct {
	// ContextWindow caps the text turns forwarded to the provider.
	ContextWindow int
	// MaxInFlight caps concurrent provider calls; 0 means unlimited.
	MaxInFlight int
	// Timeout bounds one provider call; 0 means no extra bound.
	Timeout time.Duration
}

// Dispatcher turns inbound multimodal events into provider calls and
// exactly one reply to the originating connection.
type Dispatcher struct {
	provider core.Provider
	replies  core.Replier
	metrics  metrics.Collector
	opts     Options

	// base outlives the connection: a disconnect does not cancel calls.
	base context.Context
	sem  *semaphore.Weighted
	wg   conc.WaitGroup
}

func New(base context.Context, p core.Provider, r core.Replier, m metrics.Collector, opts Options) *Dispatcher {
	d := &Dispatcher{
		provider: p,
		replies:  r,
		metrics:  m,
		opts:     opts,
		base:     base,
	}
	if opts.MaxInFlight > 0 {
		d.sem = semaphore.NewWeighted(int64(opts.MaxInFlight))
	}
	return d
}

// Submit decodes one event and, when valid, starts its provider call in the
// background. Invalid events are answered immediately.
func (d *Dispatcher) Submit(from domain.ConnID, env domain.Envelope) {
	req, err := Decode(env.Type, env.Data, d.opts.ContextWindow)
	if err != nil {
		log.Warn().Err(err).Str("module", "dispatch").Str("conn", string(from)).Str("kind", string(env.Type)).Msg("rejected request")
		if d.metrics != nil {
			d.metrics.RequestRejected(string(env.Type))
		}
		d.reply(from, env.ID, env.Type, FailureText(env.Type))
		return
	}
	d.SubmitRequest(from, env.ID, req)
}

// SubmitRequest starts the provider call for an already decoded request.
func (d *Dispatcher) SubmitRequest(from domain.ConnID, reqID string, req domain.Request) {
	d.wg.Go(func() {
		var pc panics.Catcher
		var res domain.Result
		pc.Try(func() { res = d.run(req) })
		if r := pc.Recovered(); r != nil {
			res = domain.Result{Err: r.AsError()}
		}

		kind := req.Kind()
		if !res.OK() {
			log.Error().Err(res.Err).
				Str("module", "dispatch").
				Str("conn", string(from)).
				Str("kind", string(kind)).
				Bool("provider", domain.IsProviderError(res.Err)).
				Msg("request failed")
			d.reply(from, reqID, kind, FailureText(kind))
			return
		}
		d.reply(from, reqID, kind, res.Text)
	})
}

// Wait blocks until every submitted request has replied.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(req domain.Request) domain.Result {
	ctx := d.base
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return domain.Result{Err: fmt.Errorf("wait for provider slot: %w", err)}
		}
		defer d.sem.Release(1)
	}

	start := time.Now()
	var (
		text string
		err  error
	)
	switch r := req.(type) {
	case domain.TextTurn:
		text, err = d.provider.CompleteText(ctx, r.Context)
	case domain.SingleImage:
		text, err = d.provider.DescribeImage(ctx, r.Image)
	case domain.ImageBatch:
		text, err = d.provider.DescribeImageBatch(ctx, r.Images)
	case domain.AudioClip:
		text, err = d.provider.Transcribe(ctx, r.Audio)
	default:
		err = fmt.Errorf("%w: unsupported request %T", domain.ErrClientInput, req)
	}

	if d.metrics != nil {
		d.metrics.RequestCompleted(string(req.Kind()), outcome(err), time.Since(start))
	}
	return domain.Result{Text: text, Err: err}
}

func outcome(err error) string {
	var pe *domain.ProviderError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &pe):
		return "provider_" + string(pe.Kind)
	default:
		return "error"
	}
}

func (d *Dispatcher) reply(to domain.ConnID, reqID string, kind domain.EventType, text string) {
	frame, err := ResponseFrame(reqID, text)
	if err != nil {
		log.Error().Err(err).Str("module", "dispatch").Msg("marshal response")
		return
	}
	if err := d.replies.SendTo(to, frame); err != nil {
		// Connection closed mid-flight; the result is discarded.
		log.Info().Err(err).Str("module", "dispatch").Str("conn", string(to)).Str("kind", string(kind)).Msg("reply undeliverable")
	}
}

// ResponseFrame builds the outbound response event.
func ResponseFrame(reqID, text string) (core.Frame, error) {
	data, err := json.Marshal(domain.ResponseData{Text: text})
	if err != nil {
		return nil, err
	}
	return json.Marshal(domain.Envelope{Type: domain.EventResponse, ID: reqID, Data: data})
}
