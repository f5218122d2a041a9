package engagementservice

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/sushihentaime/inkwell/internal/blogservice"
	"github.com/sushihentaime/inkwell/internal/common"
)

var (
	ErrBlogNotFound = common.ErrRecordNotFound
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	errCommentNotFound = errors.New("comment not found")
	// errConflict is returned by an attempt that lost a race against a concurrent transaction.
	errConflict = errors.New("concurrent engagement conflict")
)

const (
	DefaultViewDedupWindow = 24 * time.Hour
	DefaultMaxRetries      = 5
	DefaultCacheTTL        = 30 * time.Second

	maxCommentLength    = 5000
	defaultCommentLimit = 10
	maxCommentLimit     = 50
	maxCommentPage      = 100_000
	reconcileBatchSize  = 100
)

type Config struct {
	ViewDedupWindow time.Duration
	MaxRetries      int
	CacheTTL        time.Duration
}

type EngagementService struct {
	m       *EngagementModel
	c       *common.Cache
	mb      common.MessageProducer
	logger  *slog.Logger
	metrics *Metrics
	cfg     Config
	// now is the clock used for the view dedup window.
	now func() time.Time
}

type EngagementModel struct {
	db      *sql.DB
	logger  *slog.Logger
	metrics *Metrics
}

// ToggleResult is the relation state after a toggle and the blog's updated counter.
type ToggleResult struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

type ViewInput struct {
	BlogID         int
	SubjectID      *int
	NetworkAddress string
	UserAgent      string
}

type ViewResult struct {
	Recorded bool `json:"recorded"`
}

type AddCommentInput struct {
	BlogID    int    `json:"-"`
	SubjectID int    `json:"-"`
	Content   string `json:"content"`
	ParentID  *int   `json:"parent_id"`
}

type Comment struct {
	ID        int                `json:"id"`
	BlogID    int                `json:"blog_id"`
	Content   string             `json:"content"`
	ParentID  *int               `json:"parent_id"`
	Author    blogservice.Author `json:"author"`
	CreatedAt time.Time          `json:"created_at"`
}

// CommentThread is a top-level comment with its direct replies, oldest first.
type CommentThread struct {
	Comment
	Replies []Comment `json:"replies"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type CommentPage struct {
	Comments   []CommentThread `json:"comments"`
	Pagination Pagination      `json:"pagination"`
}

type Counters struct {
	ViewCount     int `json:"view_count"`
	LikeCount     int `json:"like_count"`
	CommentCount  int `json:"comment_count"`
	BookmarkCount int `json:"bookmark_count"`
}

type EngagementStatus struct {
	Liked      bool `json:"liked"`
	Bookmarked bool `json:"bookmarked"`
	Counters
}

type BookmarkedBlog struct {
	BlogID       int                `json:"blog_id"`
	Title        string             `json:"title"`
	Author       blogservice.Author `json:"author"`
	PublishedAt  *time.Time         `json:"published_at,omitempty"`
	BookmarkedAt time.Time          `json:"bookmarked_at"`
	Counters
}

type BlogAnalytics struct {
	BlogID int `json:"blog_id"`
	Counters
	// EngagementRate is (likes + comments) per 100 views, rounded.
	EngagementRate int `json:"engagement_rate"`
}

// CommentCreatedEvent is published on the engagement exchange after a comment commits.
type CommentCreatedEvent struct {
	CommentID     int    `json:"comment_id"`
	BlogID        int    `json:"blog_id"`
	BlogTitle     string `json:"blog_title"`
	BlogAuthorID  int    `json:"blog_author_id"`
	CommenterID   int    `json:"commenter_id"`
	CommenterName string `json:"commenter_name"`
	Content       string `json:"content"`
	ParentID      *int   `json:"parent_id,omitempty"`
}
