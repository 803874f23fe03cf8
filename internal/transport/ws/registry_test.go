package ws

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return NewClient(hub, nil, userID, nil, nil, zap.NewNop())
}

func TestRegistry_FirstAndLastTransitions(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	userID := uuid.New()

	phone := newTestClient(nil, userID)
	laptop := newTestClient(nil, userID)

	req.False(r.IsOnline(userID))
	req.True(r.Register(phone), "first device must report the online edge")
	req.False(r.Register(laptop), "second device is not an edge")
	req.True(r.IsOnline(userID))
	req.Equal(2, r.Connections(userID))

	req.False(r.Deregister(phone), "one device remains")
	req.True(r.IsOnline(userID))
	req.True(r.Deregister(laptop), "last device gone must report the offline edge")
	req.False(r.IsOnline(userID))
	req.Equal(0, r.Connections(userID))
}

func TestRegistry_DeregisterUnknownClient(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	userID := uuid.New()

	req.False(r.Deregister(newTestClient(nil, userID)))

	registered := newTestClient(nil, userID)
	r.Register(registered)
	req.False(r.Deregister(newTestClient(nil, userID)), "a stranger connection must not consume the offline edge")
	req.True(r.IsOnline(userID))
	req.True(r.Deregister(registered))
}

func TestRegistry_ConcurrentEdgesResolveExactlyOnce(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	userID := uuid.New()

	const devices = 32
	clients := make([]*Client, devices)
	for i := range clients {
		clients[i] = newTestClient(nil, userID)
	}

	var firsts, lasts atomic.Int64
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if r.Register(c) {
				firsts.Add(1)
			}
		}(c)
	}
	wg.Wait()
	req.EqualValues(1, firsts.Load(), "exactly one concurrent register wins the online edge")
	req.Equal(devices, r.Connections(userID))

	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if r.Deregister(c) {
				lasts.Add(1)
			}
		}(c)
	}
	wg.Wait()
	req.EqualValues(1, lasts.Load(), "exactly one concurrent deregister wins the offline edge")
	req.False(r.IsOnline(userID))
}

func TestRegistry_UsersAreIndependent(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	alice, bob := uuid.New(), uuid.New()

	a := newTestClient(nil, alice)
	req.True(r.Register(a))
	req.True(r.Register(newTestClient(nil, bob)))

	req.True(r.Deregister(a))
	req.False(r.IsOnline(alice))
	req.True(r.IsOnline(bob))
}
