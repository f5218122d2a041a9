package notificationservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sushihentaime/inkwell/internal/common"
	"golang.org/x/exp/rand"
)

const (
	commentTemplate = "comment_notification.html"
	maxSendRetries  = 5
	sendBaseDelay   = 500 * time.Millisecond
)

var errOwnComment = errors.New("commenter is the blog author")

func NewNotificationService(db *sql.DB, mb common.MessageConsumer, cfg MailConfig, logger *slog.Logger) (*NotificationService, error) {
	tp, err := NewTemplate()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationService{
		mb:        mb,
		m:         NewMailer(cfg, tp),
		r:         NewRecipientModel(db),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		baseDelay: sendBaseDelay,
	}, nil
}

// NotifyCommentAuthors consumes comment.created events and emails the author of the commented blog.
// It returns once the consumer is set up; messages are handled until Close is called.
func (s *NotificationService) NotifyCommentAuthors() {
	msgs, err := s.mb.Consume(common.CommentCreatedKey, common.EngagementExchange, common.CommentCreatedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				err := s.notifyCommentAuthor(msg.Body)
				switch {
				case err == nil:
				case errors.Is(err, errOwnComment):
				default:
					s.logger.Error("could not send comment notification", slog.String("error", err.Error()))
				}

				// a notification that failed every retry is dropped
				msg.Ack(false)

			case <-s.ctx.Done():
				s.logger.Info("stopping NotifyCommentAuthors due to context cancellation")
				return
			}
		}
	}()
}

func (s *NotificationService) notifyCommentAuthor(body []byte) error {
	var evt commentCreated
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("could not unmarshal message: %w", err)
	}

	if evt.CommenterID == evt.BlogAuthorID {
		return errOwnComment
	}

	recipient, err := s.r.findRecipient(s.ctx, evt.BlogAuthorID)
	if err != nil {
		return fmt.Errorf("could not find blog author %d: %w", evt.BlogAuthorID, err)
	}

	payload := struct {
		AuthorName    string
		CommenterName string
		BlogTitle     string
		Content       string
		IsReply       bool
	}{
		AuthorName:    recipient.Name,
		CommenterName: evt.CommenterName,
		BlogTitle:     evt.BlogTitle,
		Content:       evt.Content,
		IsReply:       evt.ParentID != nil,
	}

	return s.sendWithRetry(recipient.Email, payload)
}

// sendWithRetry sends the comment email using exponential backoff with jitter between attempts.
func (s *NotificationService) sendWithRetry(email string, payload any) error {
	var err error
	for attempt := 0; attempt < maxSendRetries; attempt++ {
		err = s.m.send(email, payload, commentTemplate)
		if err == nil {
			s.logger.Info("comment notification sent", slog.String("email", email))
			return nil
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay)<<uint(attempt) + 1))
		s.logger.Info("delaying comment notification", slog.String("email", email), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", maxSendRetries, err)
}

func (s *NotificationService) Close() {
	s.cancel()
}
