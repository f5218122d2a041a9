package blogservice

import (
	"database/sql"
	"time"
)

// Author is the public summary of a user attached to blogs and comments.
type Author struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type Blog struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	// Content is stored in Markdown format.
	Content     string     `json:"content"`
	Author      Author     `json:"author"`
	UserID      int        `json:"user_id"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Counters are maintained by the engagement service only.
	ViewCount     int `json:"view_count"`
	LikeCount     int `json:"like_count"`
	CommentCount  int `json:"comment_count"`
	BookmarkCount int `json:"bookmark_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m *BlogModel
}
