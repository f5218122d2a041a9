package engagementservice

import (
	"context"
	"database/sql"
	"time"
)

const (
	dashboardRecentBlogs = 5
	dashboardTopBlogs    = 3
)

// BlogStats is the counter summary of one blog in an author's dashboard.
type BlogStats struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Published bool   `json:"published"`
	Counters
	EngagementRate int       `json:"engagement_rate"`
	CreatedAt      time.Time `json:"created_at"`
}

type DashboardOverview struct {
	TotalBlogs     int `json:"total_blogs"`
	PublishedBlogs int `json:"published_blogs"`
	TotalViews     int `json:"total_views"`
	TotalLikes     int `json:"total_likes"`
	TotalComments  int `json:"total_comments"`
	TotalBookmarks int `json:"total_bookmarks"`
}

// DashboardAnalytics aggregates the counters of every blog an author owns.
type DashboardAnalytics struct {
	Overview    DashboardOverview `json:"overview"`
	RecentBlogs []BlogStats       `json:"recent_blogs"`
	TopBlogs    []BlogStats       `json:"top_blogs"`
}

type PlatformAnalytics struct {
	TotalUsers     int `json:"total_users"`
	TotalBlogs     int `json:"total_blogs"`
	PublishedBlogs int `json:"published_blogs"`
	TotalViews     int `json:"total_views"`
	TotalLikes     int `json:"total_likes"`
	TotalComments  int `json:"total_comments"`
}

func (m *EngagementModel) dashboard(ctx context.Context, userID int) (*DashboardAnalytics, error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var d DashboardAnalytics
	o := &d.Overview
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE published),
			COALESCE(SUM(view_count), 0),
			COALESCE(SUM(like_count), 0),
			COALESCE(SUM(comment_count), 0),
			COALESCE(SUM(bookmark_count), 0)
		FROM blogs
		WHERE user_id = $1`, userID).
		Scan(&o.TotalBlogs, &o.PublishedBlogs, &o.TotalViews, &o.TotalLikes, &o.TotalComments, &o.TotalBookmarks)
	if err != nil {
		return nil, err
	}

	d.RecentBlogs, err = queryBlogStats(ctx, tx, `
		SELECT id, title, published, view_count, like_count, comment_count, bookmark_count, created_at
		FROM blogs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, dashboardRecentBlogs)
	if err != nil {
		return nil, err
	}

	d.TopBlogs, err = queryBlogStats(ctx, tx, `
		SELECT id, title, published, view_count, like_count, comment_count, bookmark_count, created_at
		FROM blogs
		WHERE user_id = $1 AND published
		ORDER BY view_count DESC, id ASC
		LIMIT $2`, userID, dashboardTopBlogs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &d, nil
}

func queryBlogStats(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]BlogStats, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []BlogStats{}
	for rows.Next() {
		var b BlogStats
		err := rows.Scan(&b.ID, &b.Title, &b.Published,
			&b.ViewCount, &b.LikeCount, &b.CommentCount, &b.BookmarkCount, &b.CreatedAt)
		if err != nil {
			return nil, err
		}
		b.EngagementRate = engagementRate(&b.Counters)
		stats = append(stats, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// platform counts interaction rows, not counters, so it also reflects drift the reconciler has not fixed yet.
func (m *EngagementModel) platform(ctx context.Context) (*PlatformAnalytics, error) {
	var p PlatformAnalytics
	err := m.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM blogs),
			(SELECT COUNT(*) FROM blogs WHERE published),
			(SELECT COUNT(*) FROM views),
			(SELECT COUNT(*) FROM likes),
			(SELECT COUNT(*) FROM comments)`).
		Scan(&p.TotalUsers, &p.TotalBlogs, &p.PublishedBlogs, &p.TotalViews, &p.TotalLikes, &p.TotalComments)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// GetDashboardAnalytics returns totals across the subject's blogs, their most recent blogs,
// and their top published blogs by views.
func (s *EngagementService) GetDashboardAnalytics(ctx context.Context, subjectID int) (*DashboardAnalytics, error) {
	if subjectID <= 0 {
		return nil, ErrUnauthorized
	}

	return s.m.dashboard(ctx, subjectID)
}

// GetPlatformAnalytics returns platform wide user, blog and interaction totals.
func (s *EngagementService) GetPlatformAnalytics(ctx context.Context) (*PlatformAnalytics, error) {
	return s.m.platform(ctx)
}
