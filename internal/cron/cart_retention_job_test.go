package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dcortes/shopline-backend/pkg/logger"
)

type fakeCartRetentionRepo struct {
	lastCutoff time.Time
	called     int
	swept      int64
	err        error
}

func (f *fakeCartRetentionRepo) DeleteExpiredAnonymous(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.swept, nil
}

func newCartRetentionJob(t *testing.T, repo *fakeCartRetentionRepo) *cartRetentionJob {
	t.Helper()
	jobIface, err := NewCartRetentionJob(CartRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewCartRetentionJob: %v", err)
	}
	job, ok := jobIface.(*cartRetentionJob)
	if !ok {
		t.Fatalf("expected cartRetentionJob, got %T", jobIface)
	}
	return job
}

func TestCartRetentionJobSweepsAtNow(t *testing.T) {
	now := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	repo := &fakeCartRetentionRepo{swept: 12}
	job := newCartRetentionJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.called != 1 {
		t.Fatalf("expected one sweep, got %d", repo.called)
	}
	if !repo.lastCutoff.Equal(now) {
		t.Fatalf("expected cutoff %s, got %s", now, repo.lastCutoff)
	}
}

func TestCartRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeCartRetentionRepo{err: errors.New("boom")}
	job := newCartRetentionJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
