package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/userservice"
)

func TestRecoverPanic(t *testing.T) {
	app := newUnitApplication(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	app.recoverPanic(next).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
}

func TestRequestID(t *testing.T) {
	app := newUnitApplication(t)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = app.getRequestID(r)
	})

	t.Run("generated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		app.requestID(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))
	})

	t.Run("reused", func(t *testing.T) {
		id := uuid.NewString()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", id)

		rr := httptest.NewRecorder()
		app.requestID(next).ServeHTTP(rr, r)

		assert.Equal(t, id, seen)
		assert.Equal(t, id, rr.Header().Get("X-Request-ID"))
	})

	t.Run("invalid replaced", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "not-a-uuid")

		rr := httptest.NewRecorder()
		app.requestID(next).ServeHTTP(rr, r)

		assert.NotEqual(t, "not-a-uuid", seen)
	})
}

func TestRateLimit(t *testing.T) {
	app := newUnitApplication(t)
	app.limiter = newClientLimiter(RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2})

	handler := app.rateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	send := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, r)
		return rr.Code
	}

	assert.Equal(t, http.StatusNoContent, send("192.0.2.1:1000"))
	assert.Equal(t, http.StatusNoContent, send("192.0.2.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.1:1002"))

	// buckets are per address
	assert.Equal(t, http.StatusNoContent, send("192.0.2.2:1000"))

	app.limiter = newClientLimiter(RateLimitConfig{Enabled: false})
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusNoContent, send("192.0.2.1:1000"))
	}
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	app := newUnitApplication(t)
	app.limiter = newClientLimiter(RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1})

	handler := app.rateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	allowed := 0
	for i := 0; i < 50; i++ {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = "203.0.113.7:40000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		r.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, r)
		if rr.Code == http.StatusNoContent {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
}

func TestRequireAuthUser(t *testing.T) {
	app := newUnitApplication(t)

	handler := app.requirePermission(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, userservice.PermissionWriteBlog)

	testCases := []struct {
		name string
		user *userservice.User
		want int
	}{
		{name: "anonymous", user: &userservice.AnonymousUser, want: http.StatusUnauthorized},
		{name: "inactive", user: &userservice.User{ID: 1}, want: http.StatusForbidden},
		{name: "no permission", user: &userservice.User{ID: 1, Activated: true}, want: http.StatusForbidden},
		{
			name: "permitted",
			user: &userservice.User{ID: 1, Activated: true, Permissions: userservice.Permissions{userservice.PermissionWriteBlog}},
			want: http.StatusNoContent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := app.createUserContext(httptest.NewRequest(http.MethodPost, "/", nil), tc.user)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, r)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	app, db := newTestApplication(t)

	userID := common.TestInsertUser(t, db, "Reader", "reader")
	token := userservice.CreateTestAccessToken(t, db, userID)

	var got *userservice.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = app.getUserContext(r)
		w.WriteHeader(http.StatusNoContent)
	})

	testCases := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID int
	}{
		{name: "anonymous", header: "", wantStatus: http.StatusNoContent, wantUserID: 0},
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusNoContent, wantUserID: userID},
		{name: "malformed header", header: "Token " + token, wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer ABCDEFGHIJKLMNOPQRSTUVWXYZ", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got = nil

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			app.authenticate(next).ServeHTTP(rr, r)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus != http.StatusNoContent {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.wantUserID, subjectID(got))
		})
	}
}
