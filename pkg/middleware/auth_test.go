package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtutil "github.com/gymbuddy/gymbuddy-backend/pkg/jwt"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

func bearerToken(t *testing.T, role string, expiry time.Duration) string {
	t.Helper()
	token, err := jwtutil.GenerateToken("64f000000000000000000001", "alex@example.com", role, testSecret, expiry)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	handler := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid authentication credentials")
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	var claims *jwtutil.Claims
	handler := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
	req.Header.Set("Authorization", bearerToken(t, "user", time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "64f000000000000000000001", claims.AccountID)
	assert.Equal(t, "user", claims.Role)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	handler := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
	req.Header.Set("Authorization", bearerToken(t, "user", -time.Minute))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Expired authentication token")
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	handler := AuthMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
	req.Header.Set("Authorization", "Bearer "+strings.Repeat("x", 40))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	chain := func(next http.Handler) http.Handler {
		return AuthMiddleware(testSecret)(RequireRole("gym_admin")(next))
	}

	reached := false
	handler := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/gym-admins/gym", nil)
	req.Header.Set("Authorization", bearerToken(t, "user", time.Hour))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)

	req = httptest.NewRequest(http.MethodGet, "/gym-admins/gym", nil)
	req.Header.Set("Authorization", bearerToken(t, "gym_admin", time.Hour))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestRequireRole_NoClaims(t *testing.T) {
	handler := RequireRole("trainer")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trainer-console/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
