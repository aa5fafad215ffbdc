package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/pkg/config"
	"github.com/noah-isme/course-registration-api/pkg/jobs"
)

const jobType = "notification"

type eventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Dispatcher hands notifications to a background queue so publishing never
// blocks or fails the request that caused them.
type Dispatcher struct {
	queue     *jobs.Queue
	publisher eventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewDispatcher builds a dispatcher whose workers publish through publisher.
func NewDispatcher(publisher eventPublisher, cfg config.NotificationConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{publisher: publisher, logger: logger, now: time.Now}
	d.queue = jobs.NewQueue("notifications", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			logger.Error("notification dropped", zap.String("event_id", job.ID), zap.Error(err))
		},
	})
	return d
}

// Start launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop waits for in-flight publishes to finish.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Notify queues an event for userID. It returns an error only when the queue
// cannot accept the event.
func (d *Dispatcher) Notify(_ context.Context, userID, kind string, payload map[string]interface{}) error {
	event := Event{
		ID:         uuid.NewString(),
		UserID:     userID,
		Kind:       kind,
		Payload:    payload,
		OccurredAt: d.now().UTC(),
	}
	if err := d.queue.TryEnqueue(jobs.Job{ID: event.ID, Type: jobType, Payload: event}); err != nil {
		return fmt.Errorf("queue notification %s: %w", kind, err)
	}
	return nil
}

func (d *Dispatcher) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(Event)
	if !ok {
		d.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		return err
	}
	d.logger.Debug("notification published", zap.String("event_id", event.ID), zap.String("kind", event.Kind))
	return nil
}

// LogNotifier records notifications in the log when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the notification.
func (n *LogNotifier) Notify(_ context.Context, userID, kind string, payload map[string]interface{}) error {
	n.logger.Info("notification", zap.String("user_id", userID), zap.String("kind", kind), zap.Any("payload", payload))
	return nil
}
