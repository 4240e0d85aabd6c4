package app

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Assist/internal/core"
	"github.com/dkeye/Assist/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	err    error
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) received() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frame(nil), c.frames...)
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("%d peers", n), func(t *testing.T) {
			r := NewRegistry()
			conns := make(map[domain.ConnID]*fakeConn, n)
			var sender domain.ConnID
			for i := 0; i < n; i++ {
				id := domain.NewConnID()
				if i == 0 {
					sender = id
				}
				conns[id] = &fakeConn{}
				r.Register(id, conns[id])
			}

			frame := core.Frame(`{"type":"offer","data":{"sdp":"x"}}`)
			res := r.BroadcastExcept(sender, frame)

			assert.Equal(t, n-1, res.SentTo)
			assert.Empty(t, res.Dropped)
			assert.Empty(t, conns[sender].received())
			for id, c := range conns {
				if id == sender {
					continue
				}
				got := c.received()
				require.Len(t, got, 1)
				assert.Equal(t, frame, got[0])
			}
		})
	}
}

func TestBroadcastContinuesPastFailingPeer(t *testing.T) {
	r := NewRegistry()
	sender, bad, good := domain.NewConnID(), domain.NewConnID(), domain.NewConnID()
	badConn := &fakeConn{err: errors.New("backpressure")}
	goodConn := &fakeConn{}
	r.Register(sender, &fakeConn{})
	r.Register(bad, badConn)
	r.Register(good, goodConn)

	res := r.BroadcastExcept(sender, core.Frame("x"))

	assert.Equal(t, 1, res.SentTo)
	assert.Equal(t, []domain.ConnID{bad}, res.Dropped)
	assert.Len(t, goodConn.received(), 1)
}

func TestSendToUnknownConnection(t *testing.T) {
	r := NewRegistry()
	err := r.SendTo(domain.NewConnID(), core.Frame("x"))
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	id := domain.NewConnID()
	r.Register(id, &fakeConn{})
	assert.Equal(t, 1, r.Count())
	assert.True(t, r.Unregister(id))
	assert.False(t, r.Unregister(id))
	assert.Equal(t, 0, r.Count())
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	sender := domain.NewConnID()
	r.Register(sender, &fakeConn{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := domain.NewConnID()
			r.Register(id, &fakeConn{})
			r.Unregister(id)
		}()
		go func() {
			defer wg.Done()
			r.BroadcastExcept(sender, core.Frame("x"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, r.Count())
}

func TestPolicyByName(t *testing.T) {
	id := domain.NewConnID()
	assert.Equal(t, KickMember, PolicyByName("kick").OnBackPressure(id))
	assert.Equal(t, DropFrame, PolicyByName("drop").OnBackPressure(id))
	assert.Equal(t, DropFrame, PolicyByName("").OnBackPressure(id))
}
