package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// CONSTRUCTION
// =========================================================================

func TestNewTokenService_SecretLength(t *testing.T) {
	if _, err := NewTokenService("short", 0); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
	ts, err := NewTokenService("this-is-16-chars", 0)
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error: %v", err)
	}
	if ts.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", ts.ttl, DefaultTokenTTL)
	}
}

// =========================================================================
// ISSUE / VALIDATE
// =========================================================================

func TestIssueValidate_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue(42, "admin")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("Issue() token %q does not look like a JWT", token)
	}

	id, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if id.UserID != 42 || id.Role != "admin" {
		t.Errorf("Validate() = %+v, want user 42 role admin", id)
	}
	if id.TokenID == "" {
		t.Error("Validate() returned empty token id")
	}
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	ts := newTestTokenService(t)

	t1, _ := ts.Issue(1, "user")
	t2, _ := ts.Issue(1, "user")
	if t1 == t2 {
		t.Error("Issue() returned identical tokens for two logins")
	}
}

func TestValidate_Expired(t *testing.T) {
	ts := newTestTokenService(t)
	ts.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := ts.Issue(7, "user")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	ts.now = time.Now
	if _, err := ts.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	token, _ := newTestTokenService(t).Issue(7, "user")

	other, _ := NewTokenService("a-completely-different-secret", time.Hour)
	if _, err := other.Validate(token); err == nil {
		t.Error("Validate() accepted a token signed with another secret")
	}
}

func TestValidate_RejectsForeignTokens(t *testing.T) {
	ts := newTestTokenService(t)
	now := time.Now()

	sign := func(c jwt.Claims, method jwt.SigningMethod, key any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		if err != nil {
			t.Fatalf("SignedString: %v", err)
		}
		return s
	}
	base := func(sub, iss string) *claims {
		return &claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    iss,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.jwt"},
		{"empty", ""},
		{"alg none", sign(base("1", issuer), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)},
		{"wrong issuer", sign(base("1", "someone-else"), jwt.SigningMethodHS256, []byte(testSecret))},
		{"non numeric subject", sign(base("abc", issuer), jwt.SigningMethodHS256, []byte(testSecret))},
		{"no expiry", sign(&claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: issuer}}, jwt.SigningMethodHS256, []byte(testSecret))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Validate(tt.token); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

// =========================================================================
// MIDDLEWARE
// =========================================================================

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, ok := BearerToken(r)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Issue(9, "user")

	var (
		gotID Identity
		gotOK bool
	)
	h := OptionalAuth(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = IdentityFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), r)
	if !gotOK || gotID.UserID != 9 {
		t.Errorf("valid token: identity = %+v, %v", gotID, gotOK)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer tampered")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if gotOK {
		t.Error("invalid token must leave the request anonymous")
	}
}

func TestOptionalAuth_NilServicePassesThrough(t *testing.T) {
	called := false
	h := OptionalAuth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("next handler was not called")
	}
}
