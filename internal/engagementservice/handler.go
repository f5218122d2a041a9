package engagementservice

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sushihentaime/inkwell/internal/common"
)

func NewEngagementService(db *sql.DB, c *common.Cache, mb common.MessageProducer, logger *slog.Logger, metrics *Metrics, cfg Config) *EngagementService {
	if cfg.ViewDedupWindow <= 0 {
		cfg.ViewDedupWindow = DefaultViewDedupWindow
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	return &EngagementService{
		m:       newEngagementModel(db, logger, metrics),
		c:       c,
		mb:      mb,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *EngagementService) onRetry(op string) func(int, error) {
	return func(attempt int, err error) {
		s.metrics.retry(op)
		s.logger.Debug("retrying engagement transaction",
			slog.String("op", op),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
}

// ToggleLike likes the blog for the subject, or removes the like if it exists.
func (s *EngagementService) ToggleLike(ctx context.Context, subjectID, blogID int) (*ToggleResult, error) {
	return s.toggle(ctx, likeRelation, subjectID, blogID)
}

// ToggleBookmark bookmarks the blog for the subject, or removes the bookmark if it exists.
func (s *EngagementService) ToggleBookmark(ctx context.Context, subjectID, blogID int) (*ToggleResult, error) {
	return s.toggle(ctx, bookmarkRelation, subjectID, blogID)
}

func (s *EngagementService) toggle(ctx context.Context, r relation, subjectID, blogID int) (*ToggleResult, error) {
	if subjectID <= 0 {
		return nil, ErrUnauthorized
	}
	if blogID <= 0 {
		return nil, ErrBlogNotFound
	}

	var result *ToggleResult
	err := retryTx(ctx, s.cfg.MaxRetries, s.onRetry(string(r)), func() error {
		var err error
		result, err = s.m.toggle(ctx, r, subjectID, blogID)
		return err
	})
	if err != nil {
		s.metrics.interaction(string(r), "error")
		return nil, err
	}

	if result.Active {
		s.metrics.interaction(string(r), "on")
	} else {
		s.metrics.interaction(string(r), "off")
	}

	return result, nil
}

// RecordView counts a view unless the same subject or network address viewed the blog within the dedup window.
// A duplicate is not an error; Recorded tells the two apart.
func (s *EngagementService) RecordView(ctx context.Context, in ViewInput) (*ViewResult, error) {
	if in.BlogID <= 0 {
		return nil, ErrBlogNotFound
	}
	if in.SubjectID != nil && *in.SubjectID <= 0 {
		in.SubjectID = nil
	}
	if in.NetworkAddress == "" {
		in.NetworkAddress = "unknown"
	}
	if in.UserAgent == "" {
		in.UserAgent = "unknown"
	}

	now := s.now()
	since := now.Add(-s.cfg.ViewDedupWindow)

	var recorded bool
	err := retryTx(ctx, s.cfg.MaxRetries, s.onRetry("view"), func() error {
		var err error
		recorded, err = s.m.recordView(ctx, in, since, now)
		return err
	})
	if err != nil {
		s.metrics.interaction("views", "error")
		return nil, err
	}

	if recorded {
		s.metrics.interaction("views", "recorded")
	} else {
		s.metrics.interaction("views", "duplicate")
	}

	return &ViewResult{Recorded: recorded}, nil
}

// AddComment stores a comment or reply and returns it with its author.
func (s *EngagementService) AddComment(ctx context.Context, in *AddCommentInput) (*Comment, error) {
	if in.SubjectID <= 0 {
		return nil, ErrUnauthorized
	}

	in.Content = strings.TrimSpace(in.Content)

	v := common.NewValidator()
	validateContent(v, in.Content)
	validateParentID(v, in.ParentID)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if in.BlogID <= 0 {
		return nil, ErrBlogNotFound
	}

	var comment *Comment
	var blog *blogRef
	err := retryTx(ctx, s.cfg.MaxRetries, s.onRetry("comments"), func() error {
		var err error
		comment, blog, err = s.m.insertComment(ctx, in)
		return err
	})
	if err != nil {
		s.metrics.interaction("comments", "error")
		return nil, err
	}
	s.metrics.interaction("comments", "created")

	// pages filled from a snapshot older than this comment were keyed with the previous version
	s.c.Bump(common.CacheKeyCommentsVersion(in.BlogID))
	s.c.DeletePrefix(common.CacheKeyCommentsPrefix(in.BlogID))
	s.publishCommentCreated(ctx, comment, blog)

	return comment, nil
}

// ListComments returns one page of top-level comments, newest first, each with its replies oldest first.
func (s *EngagementService) ListComments(ctx context.Context, blogID, page, limit int) (*CommentPage, error) {
	if blogID <= 0 {
		return nil, ErrBlogNotFound
	}

	page, limit = normalizePage(page, limit)

	// read before the snapshot so a fill never outlives the comment that bumped the version
	version := s.c.Version(common.CacheKeyCommentsVersion(blogID))
	key := common.CacheKeyComments(blogID, version, page, limit)
	if cached, ok := s.c.Get(key); ok {
		if p, ok := cached.(*CommentPage); ok {
			return p, nil
		}
	}

	p, err := s.m.listComments(ctx, blogID, page, limit)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, p, s.cfg.CacheTTL)

	return p, nil
}

// GetEngagementStatus returns the blog counters and whether the subject liked or bookmarked it.
// For anonymous callers (subjectID 0) both flags are false.
func (s *EngagementService) GetEngagementStatus(ctx context.Context, subjectID, blogID int) (*EngagementStatus, error) {
	if blogID <= 0 {
		return nil, ErrBlogNotFound
	}

	counters, _, err := s.m.counters(ctx, blogID)
	if err != nil {
		return nil, err
	}

	status := &EngagementStatus{Counters: *counters}
	if subjectID <= 0 {
		return status, nil
	}

	status.Liked, err = s.m.relationExists(ctx, likeRelation, subjectID, blogID)
	if err != nil {
		return nil, err
	}

	status.Bookmarked, err = s.m.relationExists(ctx, bookmarkRelation, subjectID, blogID)
	if err != nil {
		return nil, err
	}

	return status, nil
}

// ListBookmarkedBlogs returns the subject's bookmarked blogs, most recently bookmarked first.
func (s *EngagementService) ListBookmarkedBlogs(ctx context.Context, subjectID int) ([]BookmarkedBlog, error) {
	if subjectID <= 0 {
		return nil, ErrUnauthorized
	}

	return s.m.bookmarkedBlogs(ctx, subjectID)
}

// GetBlogAnalytics returns the counters and engagement rate of a blog to its author.
func (s *EngagementService) GetBlogAnalytics(ctx context.Context, subjectID, blogID int) (*BlogAnalytics, error) {
	if subjectID <= 0 {
		return nil, ErrUnauthorized
	}
	if blogID <= 0 {
		return nil, ErrBlogNotFound
	}

	counters, ownerID, err := s.m.counters(ctx, blogID)
	if err != nil {
		return nil, err
	}

	if ownerID != subjectID {
		return nil, ErrForbidden
	}

	return &BlogAnalytics{
		BlogID:         blogID,
		Counters:       *counters,
		EngagementRate: engagementRate(counters),
	}, nil
}

func engagementRate(c *Counters) int {
	if c.ViewCount == 0 {
		return 0
	}
	return int(math.Round(float64(c.LikeCount+c.CommentCount) / float64(c.ViewCount) * 100))
}
