package orch

import (
	"github.com/dkeye/Assist/internal/app"
	"github.com/dkeye/Assist/internal/app/dispatch"
	"github.com/dkeye/Assist/internal/core"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/dkeye/Assist/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Orchestrator glues the transport to the registry and the dispatcher.
// Adapters call it once per connection event and never touch the registry
// directly.
type Orchestrator struct {
	Registry   *app.Registry
	Dispatcher *dispatch.Dispatcher
	Policy     app.Policy
	Metrics    metrics.Collector
}

func (o *Orchestrator) OnConnect(id domain.ConnID, conn core.SignalConnection) {
	o.Registry.Register(id, conn)
	if o.Metrics != nil {
		o.Metrics.ConnectionOpened()
	}
}

func (o *Orchestrator) OnDisconnect(id domain.ConnID) {
	if !o.Registry.Unregister(id) {
		return
	}
	if o.Metrics != nil {
		o.Metrics.ConnectionClosed()
	}
}

// OnSignal relays a negotiation frame, unchanged, to every other peer.
func (o *Orchestrator) OnSignal(from domain.ConnID, kind domain.EventType, frame core.Frame) {
	res := o.Registry.BroadcastExcept(from, frame)
	if o.Metrics != nil {
		o.Metrics.SignalRelayed(string(kind), res.SentTo, len(res.Dropped))
	}
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(slow) {
		case app.KickMember:
			o.Kick(slow)
		case app.DropFrame, app.NoAction:
		}
	}
}

// OnRequest hands a multimodal event to the dispatcher. The reply goes back
// to from only.
func (o *Orchestrator) OnRequest(from domain.ConnID, env domain.Envelope) {
	o.Dispatcher.Submit(from, env)
}

// OnAudio handles a recorded clip sent as a binary frame.
func (o *Orchestrator) OnAudio(from domain.ConnID, audio []byte) {
	if len(audio) == 0 {
		o.OnRequest(from, domain.Envelope{Type: domain.EventAudio})
		return
	}
	o.Dispatcher.SubmitRequest(from, "", domain.AudioClip{Audio: audio})
}

// Kick closes the connection; its read loop then reports OnDisconnect.
func (o *Orchestrator) Kick(id domain.ConnID) {
	conn, ok := o.Registry.Get(id)
	if !ok {
		return
	}
	log.Warn().Str("module", "orch").Str("conn", string(id)).Msg("kicking slow peer")
	conn.Close()
}
