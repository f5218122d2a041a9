package blogservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/inkwell/internal/common"
)

func NewBlogService(db *sql.DB) *BlogService {
	return &BlogService{m: newBlogModel(db)}
}

type CreateBlogRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published bool   `json:"published"`
	UserID    int    `json:"-"`
}

// CreateBlog creates a new blog post owned by req.UserID. Counters start at zero.
func (s *BlogService) CreateBlog(ctx context.Context, req *CreateBlogRequest) (*Blog, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateContent(v, req.Content)
	validateInt(v, req.UserID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	blog := &Blog{
		Title:     req.Title,
		Content:   sanitizeMarkdown(req.Content),
		UserID:    req.UserID,
		Published: req.Published,
	}

	err := s.m.insert(ctx, blog)
	if err != nil {
		return nil, err
	}

	return blog, nil
}

// GetBlogByID returns a blog post by its ID.
func (s *BlogService) GetBlogByID(ctx context.Context, id int) (*Blog, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getBlogById(ctx, id)
}

// GetBlogs returns published blog posts. Default limit is 10 and default offset is 0.
func (s *BlogService) GetBlogs(ctx context.Context, limit, offset *int) ([]Blog, error) {
	l, o := 10, 0
	if limit != nil && *limit > 0 {
		l = min(*limit, 100)
	}

	if offset != nil && *offset > 0 {
		o = *offset
	}

	return s.m.getBlogs(ctx, l, o)
}
