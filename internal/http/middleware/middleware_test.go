package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/princekumarofficial/portfolio-engagement/internal/utils/jwt"
)

func TestAuthMiddleware(t *testing.T) {
	secret := "test-secret"
	var gotEmail string
	handler := AuthMiddleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail, _ = GetUserEmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Missing header.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without header, got %d", rec.Code)
	}

	// Garbage token.
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for garbage token, got %d", rec.Code)
	}

	// Wrong secret.
	token, err := jwt.CreateToken("ann@x.com", "other-secret")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for wrong secret, got %d", rec.Code)
	}

	// Valid token reaches the handler with the email in context.
	token, err = jwt.CreateToken("ann@x.com", secret)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if gotEmail != "ann@x.com" {
		t.Fatalf("Expected email in context, got %q", gotEmail)
	}
}

func TestCORS_Preflight(t *testing.T) {
	origin := "https://portfolio.dev"
	handler := CORS(origin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("Preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/blog/engagement", nil)
	req.Header.Set("Origin", origin)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected empty 200 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != origin {
		t.Fatal("Expected allow-origin header for the configured origin")
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("Expected empty body, got %q", rec.Body.String())
	}
}

func TestCORS_UnknownOriginGetsNoHeaders(t *testing.T) {
	handler := CORS("https://portfolio.dev")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("Expected no allow-origin header for a foreign origin")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "203.0.113.1:54321"
	if ip := ClientIP(req); ip != "203.0.113.1" {
		t.Fatalf("Expected remote addr host, got %q", ip)
	}

	// Behind a proxy the first forwarded entry wins.
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	if ip := ClientIP(req); ip != "198.51.100.7" {
		t.Fatalf("Expected first forwarded entry, got %q", ip)
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	// The panic detail stays out of the response.
	if body := rec.Body.String(); body != `{"error":"Internal server error"}`+"\n" {
		t.Fatalf("Unexpected body: %q", body)
	}
}
