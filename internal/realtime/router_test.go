package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/demand-desk-api/internal/models"
	"github.com/noah-isme/demand-desk-api/pkg/jobs"
)

type fakeRelay struct {
	mu        sync.Mutex
	published []Envelope
	err       error
	deliver   func(Envelope) int
	running   chan struct{}
}

func (f *fakeRelay) Publish(ctx context.Context, env Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, env)
	if f.deliver != nil {
		f.deliver(env)
	}
	return nil
}

func (f *fakeRelay) Run(ctx context.Context, deliver func(Envelope) int) error {
	f.mu.Lock()
	f.deliver = deliver
	f.mu.Unlock()
	close(f.running)
	<-ctx.Done()
	return nil
}

func (f *fakeRelay) envelopes() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Envelope(nil), f.published...)
}

func TestRouterDeliversStatusChangeToOwnerRoom(t *testing.T) {
	hub := NewHub(nil, nil)
	owner := newTestClient(2)
	hub.Register(owner)
	hub.Join(owner, UserRoom(42))

	router := NewRouter(hub, nil, nil)
	router.PublishStatusChange(context.Background(), models.TransitionResult{
		DemandID:    7,
		OwnerUserID: 42,
		OldStatus:   models.DemandStatusPending,
		NewStatus:   models.DemandStatusMatched,
	})

	require.Len(t, owner.send, 1)
	assert.JSONEq(t, `{"event":"demand-status-update","data":{"demandId":7,"oldStatus":"PENDING","newStatus":"MATCHED"}}`, string(<-owner.send))
}

func TestRouterBroadcastsNewDemandToOperators(t *testing.T) {
	hub := NewHub(nil, nil)
	operator := newTestClient(1)
	user := newTestClient(1)
	hub.Register(operator)
	hub.Register(user)
	hub.Join(operator, OperatorRoom)
	hub.Join(user, UserRoom(42))

	NewRouter(hub, nil, nil).PublishNewDemand(context.Background(), models.Demand{ID: 9, UserID: 42, Status: models.DemandStatusPending})

	assert.Len(t, operator.send, 1)
	assert.Empty(t, user.send)
}

func TestRouterPublishesThroughRelay(t *testing.T) {
	hub := NewHub(nil, nil)
	owner := newTestClient(1)
	hub.Register(owner)
	hub.Join(owner, UserRoom(42))

	relay := &fakeRelay{running: make(chan struct{})}
	router := NewRouter(hub, nil, nil, WithRelay(relay))
	router.Start(context.Background())
	defer router.Stop()
	<-relay.running

	router.PublishStatusChange(context.Background(), models.TransitionResult{DemandID: 1, OwnerUserID: 42,
		OldStatus: models.DemandStatusPending, NewStatus: models.DemandStatusClosed})

	published := relay.envelopes()
	require.Len(t, published, 1)
	assert.Equal(t, UserRoom(42), published[0].Room)
	assert.Len(t, owner.send, 1)
}

func TestRouterSwallowsRelayFailure(t *testing.T) {
	relay := &fakeRelay{running: make(chan struct{}), err: errors.New("redis down")}
	router := NewRouter(NewHub(nil, nil), nil, nil, WithRelay(relay))

	assert.NotPanics(t, func() {
		router.PublishNewDemand(context.Background(), models.Demand{ID: 1})
	})
	assert.Empty(t, relay.envelopes())
}

func TestRouterDispatchesThroughQueue(t *testing.T) {
	hub := NewHub(nil, nil)
	owner := newTestClient(1)
	hub.Register(owner)
	hub.Join(owner, UserRoom(42))

	router := NewRouter(hub, nil, nil, WithQueue(jobs.QueueConfig{Workers: 1, BufferSize: 4}))
	router.Start(context.Background())
	defer router.Stop()

	router.PublishStatusChange(context.Background(), models.TransitionResult{DemandID: 3, OwnerUserID: 42,
		OldStatus: models.DemandStatusPending, NewStatus: models.DemandStatusFollowingUp})

	select {
	case frame := <-owner.send:
		assert.Contains(t, string(frame), `"newStatus":"FOLLOWING_UP"`)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestRouterDropsWhenQueueNotStarted(t *testing.T) {
	hub := NewHub(nil, nil)
	owner := newTestClient(1)
	hub.Register(owner)
	hub.Join(owner, UserRoom(42))

	router := NewRouter(hub, nil, nil, WithQueue(jobs.QueueConfig{}))
	router.PublishStatusChange(context.Background(), models.TransitionResult{DemandID: 3, OwnerUserID: 42})

	assert.Empty(t, owner.send)
}
