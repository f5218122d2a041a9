package userservice

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/inkwell/internal/common"
)

func setupTestEnvironment(t *testing.T) (*UserService, *sql.DB) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(time.Minute, 2*time.Minute)

	t.Cleanup(func() {
		cache.Flush()
	})

	return NewUserService(db, cache), db
}

func TestGetUserByAccessToken(t *testing.T) {
	s, db := setupTestEnvironment(t)

	userID := common.TestInsertUser(t, db, "Test User", "testuser")
	token := CreateTestAccessToken(t, db, userID, PermissionWriteBlog)

	expiredUserID := common.TestInsertUser(t, db, "Expired User", "expireduser")
	expired := CreateTestAccessToken(t, db, expiredUserID)
	_, err := db.Exec("UPDATE auth_tokens SET access_token_expiry = $1 WHERE user_id = $2", time.Now().Add(-time.Hour), expiredUserID)
	require.NoError(t, err)

	testCases := []struct {
		name        string
		token       string
		wantID      int
		expectedErr error
	}{
		{
			name:   "valid token",
			token:  token,
			wantID: userID,
		},
		{
			name:        "unknown token",
			token:       "AAAAAAAAAAAAAAAAAAAAAAAAAA",
			expectedErr: ErrNotFound,
		},
		{
			name:        "expired token",
			token:       expired,
			expectedErr: ErrNotFound,
		},
		{
			name:        "malformed token",
			token:       "short",
			expectedErr: common.ValidationError{Errors: map[string]string{"token": "invalid token"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			user, err := s.GetUserByAccessToken(ctx, tc.token)
			if tc.expectedErr != nil {
				assert.Nil(t, user)
				assert.Equal(t, tc.expectedErr, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantID, user.ID)
			assert.Equal(t, "Test User", user.Name)
			assert.Equal(t, "testuser", user.Username)
			assert.True(t, user.HasPermission(PermissionWriteBlog))
			assert.False(t, user.IsAnonymous())
		})
	}
}

func TestAnonymousUser(t *testing.T) {
	u := &AnonymousUser
	assert.True(t, u.IsAnonymous())
	assert.False(t, u.HasPermission(PermissionWriteBlog))

	var nilUser *User
	assert.True(t, nilUser.IsAnonymous())
}
