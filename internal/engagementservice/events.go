package engagementservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sushihentaime/inkwell/internal/common"
)

const publishTimeout = 5 * time.Second

// publishCommentCreated announces a committed comment. Failures are logged only.
func (s *EngagementService) publishCommentCreated(ctx context.Context, c *Comment, blog *blogRef) {
	if s.mb == nil {
		return
	}

	body, err := json.Marshal(CommentCreatedEvent{
		CommentID:     c.ID,
		BlogID:        c.BlogID,
		BlogTitle:     blog.Title,
		BlogAuthorID:  blog.UserID,
		CommenterID:   c.Author.ID,
		CommenterName: c.Author.Name,
		Content:       c.Content,
		ParentID:      c.ParentID,
	})
	if err != nil {
		s.logger.Error("could not marshal comment event", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = s.mb.Publish(ctx, body, common.CommentCreatedKey, common.EngagementExchange)
	if err != nil {
		s.logger.Error("could not publish comment event",
			slog.Int("comment_id", c.ID),
			slog.String("error", err.Error()))
	}
}
