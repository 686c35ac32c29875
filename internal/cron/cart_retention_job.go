package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/dcortes/shopline-backend/pkg/logger"
	"github.com/dcortes/shopline-backend/pkg/metrics"
)

// CartRetentionJobParams configure the expired-cart sweep.
type CartRetentionJobParams struct {
	Logger     *logger.Logger
	Repository cartRetentionRepo
	Metrics    *metrics.CronJobMetrics
}

type cartRetentionRepo interface {
	DeleteExpiredAnonymous(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewCartRetentionJob builds the job that deletes anonymous carts whose
// retention window has passed. Account carts are never touched.
func NewCartRetentionJob(params CartRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &cartRetentionJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type cartRetentionJob struct {
	logg    *logger.Logger
	repo    cartRetentionRepo
	metrics *metrics.CronJobMetrics
	now     func() time.Time
}

func (j *cartRetentionJob) Name() string { return "cart-retention" }

func (j *cartRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	swept, err := j.repo.DeleteExpiredAnonymous(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cart retention: %w", err)
	}
	j.metrics.AddSwept(j.Name(), int(swept))
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"rows_swept": swept,
	})
	j.logg.Info(logCtx, "expired cart sweep complete")
	return nil
}
