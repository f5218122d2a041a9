package userservice

import (
	"crypto/rand"
	"database/sql"
	"encoding/base32"
	"testing"
	"time"
)

// CreateTestAccessToken stores a fresh access token for userID and returns its plain text form.
func CreateTestAccessToken(t *testing.T, db *sql.DB, userID int, permissions ...Permission) string {
	t.Helper()

	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		t.Fatalf("could not generate token: %v", err)
	}
	plain := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)

	refresh := make([]byte, 16)
	if _, err := rand.Read(refresh); err != nil {
		t.Fatalf("could not generate refresh token: %v", err)
	}

	_, err := db.Exec(`
		INSERT INTO auth_tokens (access_token, refresh_token, user_id, access_token_expiry, refresh_token_expiry)
		VALUES ($1, $2, $3, $4, $5)`,
		HashToken(plain), HashToken(string(refresh)), userID, time.Now().Add(time.Hour), time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("could not insert access token: %v", err)
	}

	for _, p := range permissions {
		_, err := db.Exec("INSERT INTO user_permissions (user_id, permission) VALUES ($1, $2)", userID, p)
		if err != nil {
			t.Fatalf("could not insert permission: %v", err)
		}
	}

	return plain
}
