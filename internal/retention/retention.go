// Package retention removes history rows older than a cutoff.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jusunglee/uzscript/internal/db"
	"github.com/jusunglee/uzscript/internal/metrics"
)

type Cleaner struct {
	repo   db.Repository
	log    *slog.Logger
	maxAge time.Duration
	now    func() time.Time
}

func NewCleaner(repo db.Repository, log *slog.Logger, maxAge time.Duration) *Cleaner {
	return &Cleaner{repo: repo, log: log, maxAge: maxAge, now: time.Now}
}

type Result struct {
	Conversions int64
	Feedback    int64
}

// RunOnce deletes feedback and then conversions created before
// now-maxAge. Newer feedback on an expired conversion goes with the
// conversion and is not counted in Result.Feedback.
func (c *Cleaner) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RetentionCycleDuration.Observe(time.Since(start).Seconds())
	}()

	cutoff := c.now().Add(-c.maxAge)
	var res Result
	var err error

	res.Feedback, err = c.repo.DeleteOldFeedback(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("deleting old feedback: %w", err)
	}
	res.Conversions, err = c.repo.DeleteOldConversions(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("deleting old conversions: %w", err)
	}

	metrics.RetentionDeletedTotal.WithLabelValues("conversions").Add(float64(res.Conversions))
	metrics.RetentionDeletedTotal.WithLabelValues("feedback").Add(float64(res.Feedback))
	c.log.InfoContext(ctx, "retention cycle complete",
		"cutoff", cutoff,
		"conversions_deleted", res.Conversions,
		"feedback_deleted", res.Feedback,
	)
	return res, nil
}

// Run calls RunOnce immediately and then every interval until ctx is
// done. Failed cycles are logged and retried on the next tick.
func (c *Cleaner) Run(ctx context.Context, interval time.Duration) {
	c.log.InfoContext(ctx, "retention worker starting", "interval", interval, "max_age", c.maxAge)
	c.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.runLogged(ctx)
		case <-ctx.Done():
			c.log.InfoContext(ctx, "retention worker stopped")
			return
		}
	}
}

func (c *Cleaner) runLogged(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if _, err := c.RunOnce(cycleCtx); err != nil {
		c.log.ErrorContext(ctx, "retention cycle failed", "error", err)
	}
}
