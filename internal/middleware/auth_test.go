package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzolin/cashplan-service/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret"}
}

func signedToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddlewarePassesUserIDToContext(t *testing.T) {
	cfg := testConfig()

	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserID(r.Context())
	})

	req := httptest.NewRequest("GET", "/plan", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, cfg.JWTSecret, "42"))
	rec := httptest.NewRecorder()
	AuthMiddleware(cfg)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", gotID)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	req := httptest.NewRequest("GET", "/plan", nil)
	rec := httptest.NewRecorder()
	AuthMiddleware(testConfig())(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsForeignToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})

	req := httptest.NewRequest("GET", "/plan", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "other-secret", "42"))
	rec := httptest.NewRecorder()
	AuthMiddleware(testConfig())(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
