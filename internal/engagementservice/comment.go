package engagementservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/sushihentaime/inkwell/internal/common"
)

const commentColumns = `c.id, c.blog_id, c.content, c.parent_id, c.created_at, u.id, u.name, u.username`

func scanComment(row interface{ Scan(dest ...any) error }) (*Comment, error) {
	var c Comment
	var parentID sql.NullInt64

	err := row.Scan(&c.ID, &c.BlogID, &c.Content, &parentID, &c.CreatedAt, &c.Author.ID, &c.Author.Name, &c.Author.Username)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		id := int(parentID.Int64)
		c.ParentID = &id
	}

	return &c, nil
}

// threadRoot returns the top-level ancestor of a comment on blogID.
func (m *EngagementModel) threadRoot(ctx context.Context, tx *sql.Tx, commentID, blogID int) (int, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, blog_id FROM comments WHERE id = $1
			UNION ALL
			SELECT c.id, c.parent_id, c.blog_id FROM comments c JOIN chain ON c.id = chain.parent_id
		)
		SELECT id FROM chain WHERE parent_id IS NULL AND blog_id = $2`

	var rootID int
	err := tx.QueryRowContext(ctx, query, commentID, blogID).Scan(&rootID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errCommentNotFound
		}
		return 0, err
	}

	return rootID, nil
}

// insertComment stores a comment and bumps comment_count in one transaction.
// A reply to a reply is attached to the top-level comment of its thread.
func (m *EngagementModel) insertComment(ctx context.Context, in *AddCommentInput) (*Comment, *blogRef, error) {
	var comment *Comment
	var blog *blogRef

	err := m.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		blog, err = m.lockBlog(ctx, tx, in.BlogID)
		if err != nil {
			return err
		}

		var parentID *int
		if in.ParentID != nil {
			rootID, err := m.threadRoot(ctx, tx, *in.ParentID, in.BlogID)
			if err != nil {
				if errors.Is(err, errCommentNotFound) {
					return common.ValidationError{Errors: map[string]string{"parent_id": "must reference a comment on the same blog"}}
				}
				return err
			}
			parentID = &rootID
		}

		query := `
			WITH c AS (
				INSERT INTO comments (blog_id, user_id, content, parent_id)
				VALUES ($1, $2, $3, $4)
				RETURNING id, blog_id, user_id, content, parent_id, created_at
			)
			SELECT ` + commentColumns + `
			FROM c
			JOIN users u ON u.id = c.user_id`

		comment, err = scanComment(tx.QueryRowContext(ctx, query, in.BlogID, in.SubjectID, in.Content, parentID))
		if err != nil {
			if common.ForeignKeyError(err, "comments_user_id_fkey") {
				return ErrUnauthorized
			}
			return err
		}

		_, err = m.adjustCounter(ctx, tx, in.BlogID, commentCounter, 1)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return comment, blog, nil
}

// listComments reads one page of top-level comments with their direct replies from a single snapshot.
func (m *EngagementModel) listComments(ctx context.Context, blogID, page, limit int) (*CommentPage, error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blogs WHERE id = $1)`, blogID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrBlogNotFound
	}

	var total int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE blog_id = $1 AND parent_id IS NULL`, blogID).Scan(&total)
	if err != nil {
		return nil, err
	}

	top, err := queryComments(ctx, tx, `
		SELECT `+commentColumns+`
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.blog_id = $1 AND c.parent_id IS NULL
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3`, blogID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	var replies []Comment
	if len(top) > 0 {
		ids := make([]int64, len(top))
		for i, c := range top {
			ids[i] = int64(c.ID)
		}

		replies, err = queryComments(ctx, tx, `
			SELECT `+commentColumns+`
			FROM comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.parent_id = ANY($1)
			ORDER BY c.created_at ASC, c.id ASC`, pq.Array(ids))
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &CommentPage{
		Comments:   buildThreads(top, replies),
		Pagination: newPagination(page, limit, total),
	}, nil
}

func queryComments(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]Comment, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

// buildThreads attaches each reply to its top-level comment, keeping the order of both slices.
// Replies whose parent is not in top are dropped.
func buildThreads(top []Comment, replies []Comment) []CommentThread {
	byParent := make(map[int][]Comment, len(top))
	for _, r := range replies {
		if r.ParentID == nil {
			continue
		}
		byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
	}

	threads := make([]CommentThread, 0, len(top))
	for _, c := range top {
		rs := byParent[c.ID]
		if rs == nil {
			rs = []Comment{}
		}
		threads = append(threads, CommentThread{Comment: c, Replies: rs})
	}

	return threads
}

// normalizePage clamps page and limit to the supported range.
// Pages past maxCommentPage are read as maxCommentPage, which is empty for any real blog.
func normalizePage(page, limit int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > maxCommentPage:
		page = maxCommentPage
	}

	switch {
	case limit < 1:
		limit = defaultCommentLimit
	case limit > maxCommentLimit:
		limit = maxCommentLimit
	}

	return page, limit
}

func newPagination(page, limit, total int) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}
}
