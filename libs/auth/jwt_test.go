package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	s, err := NewSigner("test-secret", time.Hour, "appointmed")
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	token, exp, err := s.Sign(Subject{ID: "user-1", Role: "provider", Name: "Dr. Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", exp)
	}
	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID() != "user-1" || claims.Role != "provider" || claims.Email != "ada@example.com" {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	other, _ := NewSigner("wrong-secret", time.Hour, "appointmed")
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	s, _ := NewSigner("test-secret", time.Minute, "")
	issued := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return issued }
	token, _, err := s.Sign(Subject{ID: "user-1", Role: "user"})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	s.now = time.Now
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	s, _ := NewSigner("test-secret", time.Hour, "")
	claims := Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := s.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
	}
	for header, want := range cases {
		got, _ := BearerToken(header)
		if got != want {
			t.Fatalf("%q: expected %q got %q", header, want, got)
		}
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	s, _ := NewSigner("test-secret", time.Hour, "")
	userToken, _, _ := s.Sign(Subject{ID: "u1", Role: "user"})
	adminToken, _, _ := s.Sign(Subject{ID: "a1", Role: "admin"})

	var gotSub string
	h := RequireAuth(s)(RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := ClaimsFromContext(r.Context())
		gotSub = c.Subject
	})))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.want, rec.Code)
		}
	}
	if gotSub != "a1" {
		t.Fatalf("expected admin subject in context, got %q", gotSub)
	}
}
