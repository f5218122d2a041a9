package notificationservice

import (
	"bytes"
	"context"
	"database/sql"
	"html/template"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/inkwell/internal/common"
)

type NotificationService struct {
	mb        common.MessageConsumer
	m         Mailer
	r         RecipientFinder
	logger    NotificationLogger
	ctx       context.Context
	cancel    context.CancelFunc
	baseDelay time.Duration
}

type NotificationLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

// Template holds the parsed email templates keyed by file name.
type Template struct {
	templates map[string]*template.Template
}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}

// Recipient is the blog author a notification is addressed to.
type Recipient struct {
	Name  string
	Email string
}

type RecipientFinder interface {
	findRecipient(ctx context.Context, userID int) (*Recipient, error)
}

type RecipientModel struct {
	db *sql.DB
}

// commentCreated is the part of the comment.created event the notifier reads.
type commentCreated struct {
	CommentID     int    `json:"comment_id"`
	BlogID        int    `json:"blog_id"`
	BlogTitle     string `json:"blog_title"`
	BlogAuthorID  int    `json:"blog_author_id"`
	CommenterID   int    `json:"commenter_id"`
	CommenterName string `json:"commenter_name"`
	Content       string `json:"content"`
	ParentID      *int   `json:"parent_id"`
}
