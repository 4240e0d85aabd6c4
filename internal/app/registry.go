package app

import (
	"sync"

	"github.com/dkeye/Assist/internal/core"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	ID   domain.ConnID
	Conn core.SignalConnection
}

// Registry is the process-wide set of open real-time connections.
// It never closes adapter-owned resources.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]core.SignalConnection
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnID]core.SignalConnection),
	}
}

func (r *Registry) Register(id domain.ConnID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = conn
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("open", len(r.conns)).Msg("registered")
}

// Unregister reports whether id was registered.
func (r *Registry) Unregister(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("open", len(r.conns)).Msg("unregistered")
	return true
}

func (r *Registry) Get(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// SendTo queues f on the connection id only.
func (r *Registry) SendTo(id domain.ConnID, f core.Frame) error {
	c, ok := r.Get(id)
	if !ok {
		return domain.ErrNotConnected
	}
	return c.TrySend(f)
}

// BroadcastExcept queues f on every open connection except sender. Sends
// happen on a snapshot taken under the read lock, so a slow or closing peer
// never blocks registration changes or the other peers.
func (r *Registry) BroadcastExcept(sender domain.ConnID, f core.Frame) core.PublishResult {
	res := core.PublishResult{}
	for _, e := range r.snapshot() {
		if e.ID == sender {
			continue
		}
		if err := e.Conn.TrySend(f); err != nil {
			log.Warn().Err(err).Str("module", "app.registry").Str("from", string(sender)).Str("to", string(e.ID)).Msg("broadcast delivery failed")
			res.Dropped = append(res.Dropped, e.ID)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.registry").Str("from", string(sender)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *Registry) snapshot() []connEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]connEntry, 0, len(r.conns))
	for id, c := range r.conns {
		out = append(out, connEntry{ID: id, Conn: c})
	}
	return out
}
