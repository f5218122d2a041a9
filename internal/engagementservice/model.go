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

// relation is a table whose rows encode an on/off engagement state per (user, blog).
type relation string

const (
	likeRelation     relation = "likes"
	bookmarkRelation relation = "bookmarks"
)

func (r relation) counter() counter {
	if r == likeRelation {
		return likeCounter
	}
	return bookmarkCounter
}

// blogRef is what engagement writes need to know about the target blog.
type blogRef struct {
	ID     int
	UserID int
	Title  string
}

func newEngagementModel(db *sql.DB, logger *slog.Logger, metrics *Metrics) *EngagementModel {
	return &EngagementModel{db: db, logger: logger, metrics: metrics}
}

// withTx runs fn in a READ COMMITTED transaction, committing only if fn succeeds.
func (m *EngagementModel) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// lockBlog takes the blog row lock that serializes writers of its counters.
func (m *EngagementModel) lockBlog(ctx context.Context, tx *sql.Tx, blogID int) (*blogRef, error) {
	blog := blogRef{ID: blogID}
	err := tx.QueryRowContext(ctx, `SELECT user_id, title FROM blogs WHERE id = $1 FOR NO KEY UPDATE`, blogID).
		Scan(&blog.UserID, &blog.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}

	return &blog, nil
}

// shareBlog checks the blog exists and keeps it from being deleted until tx ends.
func (m *EngagementModel) shareBlog(ctx context.Context, tx *sql.Tx, blogID int) error {
	var id int
	err := tx.QueryRowContext(ctx, `SELECT id FROM blogs WHERE id = $1 FOR KEY SHARE`, blogID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBlogNotFound
		}
		return err
	}

	return nil
}

// toggle flips the relation row for (userID, blogID) and moves the matching counter by one.
func (m *EngagementModel) toggle(ctx context.Context, r relation, userID, blogID int) (*ToggleResult, error) {
	var result ToggleResult

	err := m.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := m.lockBlog(ctx, tx, blogID); err != nil {
			return err
		}

		deleted, err := affectsRow(tx.QueryRowContext(ctx,
			`DELETE FROM `+string(r)+` WHERE user_id = $1 AND blog_id = $2 RETURNING 1`, userID, blogID))
		if err != nil {
			return err
		}

		if deleted {
			count, err := m.adjustCounter(ctx, tx, blogID, r.counter(), -1)
			if err != nil {
				return err
			}
			result = ToggleResult{Active: false, Count: count}
			return nil
		}

		inserted, err := affectsRow(tx.QueryRowContext(ctx,
			`INSERT INTO `+string(r)+` (user_id, blog_id) VALUES ($1, $2) ON CONFLICT DO NOTHING RETURNING 1`, userID, blogID))
		if err != nil {
			if common.ForeignKeyError(err, string(r)+"_user_id_fkey") {
				return ErrUnauthorized
			}
			return err
		}

		// the row appeared between the delete and the insert
		if !inserted {
			return errConflict
		}

		count, err := m.adjustCounter(ctx, tx, blogID, r.counter(), 1)
		if err != nil {
			return err
		}
		result = ToggleResult{Active: true, Count: count}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// affectsRow scans a "RETURNING 1" row and reports whether the statement touched one.
func affectsRow(row *sql.Row) (bool, error) {
	var one int
	err := row.Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func viewLockName(blogID int) string {
	return fmt.Sprintf("view:%d", blogID)
}

// recordView appends a view event and counts it unless the same user or address viewed the blog at or after since.
func (m *EngagementModel) recordView(ctx context.Context, in ViewInput, since, now time.Time) (bool, error) {
	var recorded bool

	err := m.withTx(ctx, func(tx *sql.Tx) error {
		recorded = false

		if err := m.shareBlog(ctx, tx, in.BlogID); err != nil {
			return err
		}

		if err := common.XactLock(ctx, tx, viewLockName(in.BlogID)); err != nil {
			return err
		}

		// user_id = NULL never matches, so anonymous views dedup on the address alone
		var seen bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM views
				WHERE blog_id = $1
				AND created_at >= $2
				AND (user_id = $3 OR ip_address = $4)
			)`, in.BlogID, since, in.SubjectID, in.NetworkAddress).Scan(&seen)
		if err != nil {
			return err
		}

		if seen {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO views (blog_id, user_id, ip_address, user_agent, created_at)
			VALUES ($1, $2, $3, $4, $5)`, in.BlogID, in.SubjectID, in.NetworkAddress, in.UserAgent, now)
		if err != nil {
			return err
		}

		if _, err := m.adjustCounter(ctx, tx, in.BlogID, viewCounter, 1); err != nil {
			return err
		}

		recorded = true
		return nil
	})

	return recorded, err
}

// counters reads the stored counters and the owner of a blog.
func (m *EngagementModel) counters(ctx context.Context, blogID int) (*Counters, int, error) {
	var c Counters
	var ownerID int

	err := m.db.QueryRowContext(ctx, `
		SELECT user_id, view_count, like_count, comment_count, bookmark_count
		FROM blogs
		WHERE id = $1`, blogID).Scan(&ownerID, &c.ViewCount, &c.LikeCount, &c.CommentCount, &c.BookmarkCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrBlogNotFound
		}
		return nil, 0, err
	}

	return &c, ownerID, nil
}

func (m *EngagementModel) relationExists(ctx context.Context, r relation, userID, blogID int) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+string(r)+` WHERE user_id = $1 AND blog_id = $2)`, userID, blogID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// bookmarkedBlogs returns the blogs a user bookmarked, most recent bookmark first.
func (m *EngagementModel) bookmarkedBlogs(ctx context.Context, userID int) ([]BookmarkedBlog, error) {
	query := `
		SELECT b.id, b.title, b.published_at, bm.created_at,
			b.view_count, b.like_count, b.comment_count, b.bookmark_count,
			u.id, u.name, u.username
		FROM bookmarks bm
		JOIN blogs b ON b.id = bm.blog_id
		JOIN users u ON u.id = b.user_id
		WHERE bm.user_id = $1
		ORDER BY bm.created_at DESC, b.id DESC`

	rows, err := m.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []BookmarkedBlog{}
	for rows.Next() {
		var b BookmarkedBlog
		var publishedAt sql.NullTime

		err := rows.Scan(&b.BlogID, &b.Title, &publishedAt, &b.BookmarkedAt,
			&b.ViewCount, &b.LikeCount, &b.CommentCount, &b.BookmarkCount,
			&b.Author.ID, &b.Author.Name, &b.Author.Username)
		if err != nil {
			return nil, err
		}

		if publishedAt.Valid {
			b.PublishedAt = &publishedAt.Time
		}

		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}
