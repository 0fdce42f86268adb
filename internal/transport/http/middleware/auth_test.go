package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"firesafety_reminders/internal/httputil"
	"firesafety_reminders/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func validClaims() Claims {
	return Claims{
		Email:    "ada@acme.test",
		TenantID: "tenant-1",
		Role:     model.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetAuthUserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		json.NewEncoder(w).Encode(user)
	})
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

// ============================================================================
// AuthMiddleware
// ============================================================================

func TestAuthMiddleware_BearerToken(t *testing.T) {
	// ARRANGE
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
	rec := httptest.NewRecorder()

	// ACT
	AuthMiddleware(testSecret)(echoUser()).ServeHTTP(rec, req)

	// ASSERT
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var user model.AuthUser
	json.NewDecoder(rec.Body).Decode(&user)
	want := model.AuthUser{ID: "user-1", TenantID: "tenant-1", Role: model.RoleManager, Email: "ada@acme.test"}
	if user != want {
		t.Errorf("user = %+v, want %+v", user, want)
	}
}

func TestAuthMiddleware_CookieFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: signToken(t, testSecret, validClaims())})
	rec := httptest.NewRecorder()

	AuthMiddleware(testSecret)(echoUser()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noTenant := validClaims()
	noTenant.TenantID = ""

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing", "", httputil.ErrCodeUnauthorized},
		{"garbage", "Bearer not-a-jwt", model.CodeTokenInvalid},
		{"wrong secret", "Bearer " + signToken(t, "other", validClaims()), model.CodeTokenInvalid},
		{"expired", "Bearer " + signToken(t, testSecret, expired), model.CodeTokenExpired},
		{"no tenant claim", "Bearer " + signToken(t, testSecret, noTenant), model.CodeTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(testSecret)(echoUser()).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_RejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+s)
	rec := httptest.NewRecorder()

	AuthMiddleware(testSecret)(echoUser()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// ============================================================================
// RequireRole
// ============================================================================

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{model.RoleAdmin, http.StatusOK},
		{model.RoleManager, http.StatusOK},
		{model.RoleTechnician, http.StatusForbidden},
		{model.RoleViewer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req = req.WithContext(WithAuthUser(req.Context(), model.AuthUser{ID: "u", TenantID: "t", Role: tt.role}))
			rec := httptest.NewRecorder()

			RequireRole(model.PrivilegedRoles...)(echoUser()).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRole(model.RoleAdmin)(echoUser()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
