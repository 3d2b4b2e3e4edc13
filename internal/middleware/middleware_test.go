package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetUserFromContext(r.Context())))
	})
}

func TestBearerAuth(t *testing.T) {
	h := BearerAuth(stubVerifier{"good": "user-1"})(echoUser())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer good", http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer good", http.StatusOK, "user-1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["detail"])
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/photo/analyze", nil)
		req = req.WithContext(WithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("a"))
	assert.Equal(t, http.StatusNoContent, call("a"))
	assert.Equal(t, http.StatusTooManyRequests, call("a"))
	assert.Equal(t, http.StatusNoContent, call("b"), "limits are per user")

	assert.Equal(t, 0, rl.Cleanup(time.Now()))
	assert.Equal(t, 2, rl.Cleanup(time.Now().Add(time.Hour)))
}

func TestHealthHandler(t *testing.T) {
	ok := CheckFunc(func(ctx context.Context) error { return nil })
	bad := CheckFunc(func(ctx context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"db": ok}, []string{"openai"})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"db": ok, "minio": bad}, nil)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "down", body.Checks["minio"].Message)
	assert.Equal(t, "healthy", body.Checks["db"].Status)
}

func TestValidatePhotoID(t *testing.T) {
	assert.NoError(t, ValidatePhotoID("3f1c2f36-8a55-4c38-9d0b-6e0a3c8c1a11"))
	assert.Error(t, ValidatePhotoID(""))
	assert.Error(t, ValidatePhotoID("1; DROP TABLE photos"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "cat.jpg", SanitizeFilename("../../cat.jpg"))
	assert.Equal(t, "dog.png", SanitizeFilename(`C:\Users\me\dog.png`))
	assert.Equal(t, "a.jpg", SanitizeFilename("a\x00.jpg"))
	assert.Equal(t, "upload", SanitizeFilename(""))

	long := SanitizeFilename(strings.Repeat("x", 300) + ".jpeg")
	assert.Len(t, long, 255)
	assert.True(t, strings.HasSuffix(long, ".jpeg"))
}

func TestParsePositiveInt(t *testing.T) {
	n, err := ParsePositiveInt("", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = ParsePositiveInt("3", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ParsePositiveInt("0", 10)
	assert.Error(t, err)
	_, err = ParsePositiveInt("abc", 10)
	assert.Error(t, err)
}
