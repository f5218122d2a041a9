package engagementservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// counter is a denormalized aggregate column on blogs.
type counter string

const (
	viewCounter     counter = "view_count"
	likeCounter     counter = "like_count"
	commentCounter  counter = "comment_count"
	bookmarkCounter counter = "bookmark_count"
)

var allCounters = []counter{viewCounter, likeCounter, commentCounter, bookmarkCounter}

func (c counter) valid() bool {
	switch c {
	case viewCounter, likeCounter, commentCounter, bookmarkCounter:
		return true
	}
	return false
}

// adjustCounter applies delta to one counter of a blog inside tx and returns the new value.
// Every counter write goes through here, in the same transaction as the interaction it reflects.
// A result below zero is clamped to zero and logged as an invariant violation.
func (m *EngagementModel) adjustCounter(ctx context.Context, tx *sql.Tx, blogID int, c counter, delta int) (int, error) {
	if !c.valid() {
		return 0, fmt.Errorf("unknown counter %q", c)
	}

	var current int
	err := tx.QueryRowContext(ctx, `SELECT `+string(c)+` FROM blogs WHERE id = $1 FOR NO KEY UPDATE`, blogID).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", c, err)
	}

	next := current + delta
	if next < 0 {
		m.logger.Error("counter invariant violated",
			slog.Int("blog_id", blogID),
			slog.String("counter", string(c)),
			slog.Int("stored", current),
			slog.Int("delta", delta))
		m.metrics.violation(c)
		next = 0
	}

	_, err = tx.ExecContext(ctx, `UPDATE blogs SET `+string(c)+` = $1 WHERE id = $2`, next, blogID)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c, err)
	}

	return next, nil
}
