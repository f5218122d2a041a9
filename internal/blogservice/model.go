package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sushihentaime/inkwell/internal/common"
)

var (
	ErrRecordNotFound = common.ErrRecordNotFound
	ErrUserForeignKey = errors.New("user_id does not exist")
)

const blogColumns = `
	b.id, b.title, b.content, b.user_id, b.published, b.published_at,
	b.view_count, b.like_count, b.comment_count, b.bookmark_count,
	b.created_at, b.updated_at, b.version, u.id, u.name, u.username`

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(row rowScanner) (*Blog, error) {
	var blog Blog
	var publishedAt sql.NullTime

	err := row.Scan(
		&blog.ID, &blog.Title, &blog.Content, &blog.UserID, &blog.Published, &publishedAt,
		&blog.ViewCount, &blog.LikeCount, &blog.CommentCount, &blog.BookmarkCount,
		&blog.CreatedAt, &blog.UpdatedAt, &blog.Version, &blog.Author.ID, &blog.Author.Name, &blog.Author.Username,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		blog.PublishedAt = &publishedAt.Time
	}

	return &blog, nil
}

func (m *BlogModel) insert(ctx context.Context, blog *Blog) error {
	query := `
		INSERT INTO blogs (title, content, user_id, published, published_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at, version`

	var publishedAt *time.Time
	if blog.Published {
		now := time.Now()
		publishedAt = &now
	}

	err := m.db.QueryRowContext(ctx, query, blog.Title, blog.Content, blog.UserID, blog.Published, publishedAt).
		Scan(&blog.ID, &blog.CreatedAt, &blog.UpdatedAt, &blog.Version)
	if err != nil {
		switch {
		case common.ForeignKeyError(err, "blogs_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	blog.PublishedAt = publishedAt

	return nil
}

// getBlogById is a method to get a blog by its ID joining the users table to get the author summary.
func (m *BlogModel) getBlogById(ctx context.Context, id int) (*Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1`

	blog, err := scanBlog(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return blog, nil
}

// getBlogs to get published blogs. set limit and offset to get paginated results and sort the results by created_at descending order
func (m *BlogModel) getBlogs(ctx context.Context, limit, offset int) ([]Blog, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.published = true
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $1 OFFSET $2`

	rows, err := m.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []Blog{}
	for rows.Next() {
		blog, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *blog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blogs, nil
}
