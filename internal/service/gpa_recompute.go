package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/jobs"
)

const gpaRecomputeJob = "gpa_recompute"

type bulkRecalculator interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// GPARecomputer refreshes every stored student summary in the background after
// the retake policy changes.
type GPARecomputer struct {
	queue   *jobs.Queue
	records bulkRecalculator
	logger  *zap.Logger
}

// NewGPARecomputer builds a single-worker recomputer over records.
func NewGPARecomputer(records bulkRecalculator, logger *zap.Logger) *GPARecomputer {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &GPARecomputer{records: records, logger: logger}
	r.queue = jobs.NewQueue("gpa-recompute", r.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 4,
		MaxRetries: 2,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			logger.Error("gpa recompute abandoned", zap.String("job_id", job.ID), zap.Error(err))
		},
	})
	return r
}

// Start launches the worker.
func (r *GPARecomputer) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop waits for a running recompute to finish.
func (r *GPARecomputer) Stop() {
	r.queue.Stop()
}

// RetakePolicyChanged queues a full recompute. It has the RetakePolicyListener shape.
func (r *GPARecomputer) RetakePolicyChanged(_ context.Context, policy models.RetakePolicy) {
	job := jobs.Job{ID: uuid.NewString(), Type: gpaRecomputeJob, Payload: policy}
	if err := r.queue.TryEnqueue(job); err != nil {
		r.logger.Warn("gpa recompute not queued", zap.String("policy", string(policy)), zap.Error(err))
	}
}

func (r *GPARecomputer) handle(ctx context.Context, job jobs.Job) error {
	updated, err := r.records.RecalculateAll(ctx)
	r.logger.Info("gpa recompute ran", zap.String("job_id", job.ID), zap.Any("policy", job.Payload), zap.Int("students", updated))
	return err
}
