package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestRetryableTxError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pq.Error{Code: "40001"}, want: true},
		{name: "deadlock", err: &pq.Error{Code: "40P01"}, want: true},
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: true},
		{name: "wrapped", err: fmt.Errorf("insert like: %w", &pq.Error{Code: "40001"}), want: true},
		{name: "foreign key violation", err: &pq.Error{Code: "23503"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RetryableTxError(tc.err))
		})
	}
}

func TestForeignKeyError(t *testing.T) {
	err := &pq.Error{Code: "23503", Constraint: "blogs_user_id_fkey"}

	assert.True(t, ForeignKeyError(err, "blogs_user_id_fkey"))
	assert.False(t, ForeignKeyError(err, "comments_blog_id_fkey"))
	assert.False(t, ForeignKeyError(errors.New("boom"), "blogs_user_id_fkey"))
}

func TestLockID(t *testing.T) {
	assert.Equal(t, LockID("view:1"), LockID("view:1"))
	assert.NotEqual(t, LockID("view:1"), LockID("view:2"))
}
