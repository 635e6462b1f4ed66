package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/demand-desk-api/internal/models"
	"github.com/noah-isme/demand-desk-api/internal/service"
	"github.com/noah-isme/demand-desk-api/pkg/jobs"
)

type envelopeRelay interface {
	Publish(ctx context.Context, env Envelope) error
	Run(ctx context.Context, deliver func(Envelope) int) error
}

// Router turns committed demand events into room deliveries. It never reports
// delivery failures to the caller.
type Router struct {
	hub     *Hub
	relay   envelopeRelay
	queue   *jobs.Queue
	metrics *service.MetricsService
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ service.Notifier = (*Router)(nil)

// RouterOption configures the router.
type RouterOption func(*Router)

// WithRelay routes every envelope through a cross-instance relay instead of the local hub.
func WithRelay(relay envelopeRelay) RouterOption {
	return func(r *Router) {
		r.relay = relay
	}
}

// WithQueue moves dispatch off the request path onto a worker pool.
func WithQueue(cfg jobs.QueueConfig) RouterOption {
	return func(r *Router) {
		if cfg.Logger == nil {
			cfg.Logger = r.logger
		}
		r.queue = jobs.NewQueue("notifications", r.handleJob, cfg)
	}
}

// NewRouter constructs a router delivering into hub.
func NewRouter(hub *Hub, metrics *service.MetricsService, logger *zap.Logger, opts ...RouterOption) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{hub: hub, metrics: metrics, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Start launches the worker pool and relay subscriber, if configured.
func (r *Router) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	if r.queue != nil {
		r.queue.Start(ctx)
	}
	if r.relay != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.relay.Run(ctx, r.deliverLocal); err != nil {
				r.logger.Error("relay subscriber stopped", zap.Error(err))
			}
		}()
	}
}

// Stop shuts down background workers.
func (r *Router) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.queue != nil {
		r.queue.Stop()
	}
	r.wg.Wait()
}

// PublishStatusChange notifies the owner's sessions of a committed transition.
func (r *Router) PublishStatusChange(ctx context.Context, result models.TransitionResult) {
	env, err := NewEnvelope(UserRoom(result.OwnerUserID), EventStatusUpdate, StatusUpdate{
		DemandID:  result.DemandID,
		OldStatus: string(result.OldStatus),
		NewStatus: string(result.NewStatus),
	})
	if err != nil {
		r.fail(EventStatusUpdate, err)
		return
	}
	r.submit(ctx, env)
}

// PublishNewDemand announces a freshly submitted demand to operators.
func (r *Router) PublishNewDemand(ctx context.Context, demand models.Demand) {
	env, err := NewEnvelope(OperatorRoom, EventNewDemand, demand)
	if err != nil {
		r.fail(EventNewDemand, err)
		return
	}
	r.submit(ctx, env)
}

func (r *Router) submit(ctx context.Context, env Envelope) {
	if r.queue == nil {
		if err := r.dispatch(ctx, env); err != nil {
			r.fail(env.Event, err)
		}
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: env.Event, Payload: env}
	if err := r.queue.Enqueue(job); err != nil {
		r.metrics.RecordNotification(env.Event, service.NotificationDropped)
		r.logger.Warn("notification not queued", zap.String("event", env.Event), zap.String("room", env.Room), zap.Error(err))
	}
}

func (r *Router) handleJob(ctx context.Context, job jobs.Job) error {
	env, ok := job.Payload.(Envelope)
	if !ok {
		r.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	if err := r.dispatch(ctx, env); err != nil {
		r.metrics.RecordNotification(env.Event, service.NotificationFailed)
		return err
	}
	return nil
}

func (r *Router) dispatch(ctx context.Context, env Envelope) error {
	if r.relay != nil {
		if err := r.relay.Publish(ctx, env); err != nil {
			return fmt.Errorf("relay %s to %s: %w", env.Event, env.Room, err)
		}
		return nil
	}
	r.deliverLocal(env)
	return nil
}

func (r *Router) deliverLocal(env Envelope) int {
	n := r.hub.Deliver(env)
	if n > 0 {
		r.metrics.RecordNotification(env.Event, service.NotificationDelivered)
	} else {
		r.metrics.RecordNotification(env.Event, service.NotificationDropped)
	}
	r.logger.Debug("notification delivered", zap.String("event", env.Event), zap.String("room", env.Room), zap.Int("clients", n))
	return n
}

func (r *Router) fail(event string, err error) {
	r.metrics.RecordNotification(event, service.NotificationFailed)
	r.logger.Warn("notification failed", zap.String("event", event), zap.Error(err))
}
