package engagementservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sushihentaime/inkwell/internal/common"
)

const reconcileLockName = "engagement:reconcile"

// ConsistencyError describes a stored counter that did not match the rows it is derived from.
type ConsistencyError struct {
	BlogID  int
	Counter string
	Stored  int
	Actual  int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("blog %d: %s is %d, expected %d", e.BlogID, e.Counter, e.Stored, e.Actual)
}

type ReconcileReport struct {
	BlogID      int
	Corrections []*ConsistencyError
}

// reconcileBlog recomputes the counters of one blog from its interaction rows and fixes any that drifted.
func (m *EngagementModel) reconcileBlog(ctx context.Context, blogID int) (*ReconcileReport, error) {
	report := &ReconcileReport{BlogID: blogID}

	err := m.withTx(ctx, func(tx *sql.Tx) error {
		report.Corrections = nil

		// both rows follow the order of allCounters
		stored := make([]int, len(allCounters))
		err := tx.QueryRowContext(ctx, `
			SELECT view_count, like_count, comment_count, bookmark_count
			FROM blogs
			WHERE id = $1
			FOR NO KEY UPDATE`, blogID).Scan(&stored[0], &stored[1], &stored[2], &stored[3])
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBlogNotFound
			}
			return err
		}

		actual := make([]int, len(allCounters))
		err = tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM views WHERE blog_id = $1),
				(SELECT COUNT(*) FROM likes WHERE blog_id = $1),
				(SELECT COUNT(*) FROM comments WHERE blog_id = $1),
				(SELECT COUNT(*) FROM bookmarks WHERE blog_id = $1)`, blogID).Scan(&actual[0], &actual[1], &actual[2], &actual[3])
		if err != nil {
			return err
		}

		for i, c := range allCounters {
			if stored[i] == actual[i] {
				continue
			}

			_, err := tx.ExecContext(ctx, `UPDATE blogs SET `+string(c)+` = $1 WHERE id = $2`, actual[i], blogID)
			if err != nil {
				return fmt.Errorf("correct %s: %w", c, err)
			}

			report.Corrections = append(report.Corrections, &ConsistencyError{
				BlogID:  blogID,
				Counter: string(c),
				Stored:  stored[i],
				Actual:  actual[i],
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

// blogIDsAfter returns up to limit blog ids greater than after, ascending.
func (m *EngagementModel) blogIDsAfter(ctx context.Context, after, limit int) ([]int, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id FROM blogs WHERE id > $1 ORDER BY id LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ReconcileBlog compares the counters of a blog with the true row counts and corrects any mismatch.
// Each mismatch is logged as a ConsistencyError.
func (s *EngagementService) ReconcileBlog(ctx context.Context, blogID int) (*ReconcileReport, error) {
	var report *ReconcileReport
	err := retryTx(ctx, s.cfg.MaxRetries, s.onRetry("reconcile"), func() error {
		var err error
		report, err = s.m.reconcileBlog(ctx, blogID)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, ce := range report.Corrections {
		s.logger.Error("counter drift corrected",
			slog.Int("blog_id", ce.BlogID),
			slog.String("counter", ce.Counter),
			slog.Int("stored", ce.Stored),
			slog.Int("actual", ce.Actual),
			slog.String("error", ce.Error()))
		s.metrics.corrected(counter(ce.Counter))
	}

	return report, nil
}

// ReconcileAll reconciles every blog in id order and returns the number of corrected counters.
// Only one instance runs at a time; when another holds the lock it returns immediately.
func (s *EngagementService) ReconcileAll(ctx context.Context) (int, error) {
	locked, unlock, err := common.TryAdvisoryLock(ctx, s.m.db, reconcileLockName)
	if err != nil {
		return 0, err
	}
	if !locked {
		s.logger.Info("reconciliation already running elsewhere")
		return 0, nil
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("could not release reconcile lock", slog.String("error", err.Error()))
		}
	}()

	corrected, after := 0, 0
	for {
		ids, err := s.m.blogIDsAfter(ctx, after, reconcileBatchSize)
		if err != nil {
			return corrected, err
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			report, err := s.ReconcileBlog(ctx, id)
			if err != nil {
				if errors.Is(err, ErrBlogNotFound) {
					continue
				}
				return corrected, err
			}
			corrected += len(report.Corrections)
		}

		after = ids[len(ids)-1]
	}

	return corrected, nil
}

// Reconciler runs ReconcileAll on a fixed interval.
type Reconciler struct {
	s        *EngagementService
	interval time.Duration
	logger   *slog.Logger
}

func NewReconciler(s *EngagementService, interval time.Duration, logger *slog.Logger) *Reconciler {
	return &Reconciler{s: s, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. A non positive interval disables it.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("counter reconciliation disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping counter reconciliation")
			return
		case <-ticker.C:
			start := time.Now()
			n, err := r.s.ReconcileAll(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("counter reconciliation failed", slog.String("error", err.Error()))
				continue
			}
			r.logger.Info("counter reconciliation finished", slog.Int("corrected", n), slog.Duration("took", time.Since(start)))
		}
	}
}
