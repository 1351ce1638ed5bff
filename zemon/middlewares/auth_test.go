package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zemon/zemon/config"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := config.Config{JWTSecret: "s3cret"}
	var seen string
	h := AuthMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
	}))

	token, err := IssueToken("s3cret", "user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", seen)

	for _, header := range []string{"", "Bearer", "Token " + token, "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, header)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())
	}
}

func TestParseToken_Rejects(t *testing.T) {
	other, err := IssueToken("other", "user-1")
	require.NoError(t, err)
	_, err = ParseToken("s3cret", other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	s, err := expired.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseToken("s3cret", s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	numeric := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 7})
	s, err = numeric.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = ParseToken("s3cret", s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
