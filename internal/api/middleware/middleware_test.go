package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
)

const testSecret = "test-secret"

func actorEcho(t *testing.T, got *domain.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		require.True(t, ok)
		*got = actor
		w.WriteHeader(http.StatusNoContent)
	})
}

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuth_Headers(t *testing.T) {
	auth := NewAuthenticator("", "", logger.NewNop())

	tests := []struct {
		name     string
		userID   string
		role     string
		status   int
		expected domain.Actor
	}{
		{name: "customer by default", userID: "7", status: http.StatusNoContent, expected: domain.Actor{UserID: 7, Role: domain.RoleCustomer}},
		{name: "vendor", userID: "8", role: "vendor", status: http.StatusNoContent, expected: domain.Actor{UserID: 8, Role: domain.RoleVendor}},
		{name: "admin", userID: "9", role: "ADMIN", status: http.StatusNoContent, expected: domain.Actor{UserID: 9, Role: domain.RoleAdmin}},
		{name: "missing user", status: http.StatusUnauthorized},
		{name: "bad user id", userID: "abc", status: http.StatusUnauthorized},
		{name: "unknown role", userID: "7", role: "ROOT", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.Actor
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}
			rec := httptest.NewRecorder()

			auth.Middleware(actorEcho(t, &got)).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestAuth_JWT(t *testing.T) {
	auth := NewAuthenticator(testSecret, "stay-auth", logger.NewNop())
	valid := Claims{
		Role: "VENDOR",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    "stay-auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	t.Run("valid token", func(t *testing.T) {
		var got domain.Actor
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(testSecret), valid))
		rec := httptest.NewRecorder()

		auth.Middleware(actorEcho(t, &got)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, domain.Actor{UserID: 42, Role: domain.RoleVendor}, got)
	})

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	otherIssuer := valid
	otherIssuer.Issuer = "someone-else"

	rejected := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"wrong secret":   "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), valid),
		"wrong alg":      "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), valid),
		"expired":        "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired),
		"wrong issuer":   "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), otherIssuer),
	}
	for name, header := range rejected {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			// заголовки шлюза игнорируются, когда включен JWT
			req.Header.Set(HeaderUserID, "1")
			rec := httptest.NewRecorder()

			auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not be called")
			})).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

type observed struct {
	method, route string
	status        int
}

type fakeMetrics struct {
	mu   sync.Mutex
	seen []observed
}

func (m *fakeMetrics) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, observed{method: method, route: route, status: status})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	m := &fakeMetrics{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.HandleFunc("/api/v1/bookings/{bookingId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/123", nil))

	require.Len(t, m.seen, 1)
	assert.Equal(t, observed{method: http.MethodGet, route: "/api/v1/bookings/{bookingId}", status: http.StatusNotFound}, m.seen[0])
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "req-1", seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
