package notificationservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/inkwell/internal/common"
)

func newTestService(mc common.MessageConsumer, m Mailer, r RecipientFinder) *NotificationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationService{
		mb:        mc,
		m:         m,
		r:         r,
		logger:    common.TestLogger(),
		ctx:       ctx,
		cancel:    cancel,
		baseDelay: time.Millisecond,
	}
}

func eventBody(t *testing.T, evt commentCreated) []byte {
	t.Helper()

	body, err := json.Marshal(evt)
	require.NoError(t, err)
	return body
}

func TestNotifyCommentAuthor(t *testing.T) {
	parent := 1
	ada := &Recipient{Name: "Ada", Email: "ada@example.com"}

	testCases := []struct {
		name       string
		evt        commentCreated
		setup      func(m *MockMailer, r *MockRecipientFinder)
		wantErr    error
		wantAnyErr bool
		wantSends  int
	}{
		{
			name: "notifies the author",
			evt:  commentCreated{BlogAuthorID: 1, CommenterID: 2, CommenterName: "Bob", BlogTitle: "Go tips", Content: "hi"},
			setup: func(m *MockMailer, r *MockRecipientFinder) {
				r.On("findRecipient", mock.Anything, 1).Return(ada, nil)
				m.On("send", "ada@example.com", mock.Anything, commentTemplate).Return(nil)
			},
			wantSends: 1,
		},
		{
			name: "reply",
			evt:  commentCreated{BlogAuthorID: 1, CommenterID: 2, ParentID: &parent},
			setup: func(m *MockMailer, r *MockRecipientFinder) {
				r.On("findRecipient", mock.Anything, 1).Return(ada, nil)
				m.On("send", "ada@example.com", mock.MatchedBy(func(data any) bool {
					b, _ := json.Marshal(data)
					var p struct{ IsReply bool }
					return json.Unmarshal(b, &p) == nil && p.IsReply
				}), commentTemplate).Return(nil)
			},
			wantSends: 1,
		},
		{
			name:    "own comment",
			evt:     commentCreated{BlogAuthorID: 1, CommenterID: 1},
			setup:   func(m *MockMailer, r *MockRecipientFinder) {},
			wantErr: errOwnComment,
		},
		{
			name: "unknown author",
			evt:  commentCreated{BlogAuthorID: 7, CommenterID: 2},
			setup: func(m *MockMailer, r *MockRecipientFinder) {
				r.On("findRecipient", mock.Anything, 7).Return(nil, common.ErrRecordNotFound)
			},
			wantErr: common.ErrRecordNotFound,
		},
		{
			name: "smtp keeps failing",
			evt:  commentCreated{BlogAuthorID: 1, CommenterID: 2},
			setup: func(m *MockMailer, r *MockRecipientFinder) {
				r.On("findRecipient", mock.Anything, 1).Return(ada, nil)
				m.On("send", "ada@example.com", mock.Anything, commentTemplate).Return(errors.New("connection refused"))
			},
			wantAnyErr: true,
			wantSends:  maxSendRetries,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockMailer := new(MockMailer)
			mockFinder := new(MockRecipientFinder)
			tc.setup(mockMailer, mockFinder)

			s := newTestService(nil, mockMailer, mockFinder)
			t.Cleanup(s.Close)

			err := s.notifyCommentAuthor(eventBody(t, tc.evt))
			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.wantAnyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}

			mockMailer.AssertNumberOfCalls(t, "send", tc.wantSends)
			mockFinder.AssertExpectations(t)
		})
	}
}

func TestNotifyCommentAuthorBadPayload(t *testing.T) {
	s := newTestService(nil, new(MockMailer), new(MockRecipientFinder))
	t.Cleanup(s.Close)

	assert.Error(t, s.notifyCommentAuthor([]byte("not json")))
}

func TestNotifyCommentAuthors(t *testing.T) {
	mockMC := &MockMessageConsumer{Bodies: [][]byte{
		eventBody(t, commentCreated{BlogAuthorID: 1, CommenterID: 1}),
		eventBody(t, commentCreated{BlogAuthorID: 1, CommenterID: 2, CommenterName: "Bob", BlogTitle: "Go tips"}),
	}}
	mockMC.On("Consume", common.CommentCreatedKey, common.EngagementExchange, common.CommentCreatedQueue).Return(nil)

	mockFinder := new(MockRecipientFinder)
	mockFinder.On("findRecipient", mock.Anything, 1).Return(&Recipient{Name: "Ada", Email: "ada@example.com"}, nil)

	sent := make(chan string, 1)
	mockMailer := new(MockMailer)
	mockMailer.On("send", mock.Anything, mock.Anything, commentTemplate).Return(nil).Run(func(args mock.Arguments) {
		sent <- args.String(0)
	})

	s := newTestService(mockMC, mockMailer, mockFinder)
	t.Cleanup(s.Close)

	s.NotifyCommentAuthors()

	select {
	case email := <-sent:
		assert.Equal(t, "ada@example.com", email)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}

	mockMC.AssertExpectations(t)
}

func TestFindRecipient(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	db := common.TestDB("file://../../migrations", t)
	id := common.TestInsertUser(t, db, "Ada Lovelace", "ada")
	m := NewRecipientModel(db)

	r, err := m.findRecipient(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, &Recipient{Name: "Ada Lovelace", Email: "ada@example.com"}, r)

	_, err = m.findRecipient(context.Background(), 999999)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}
