package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newLoginHandler(t *testing.T) *LoginHandler {
	t.Helper()
	handler, err := NewLoginHandler([]byte("test-secret"), "owner", "pw")
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestLoginIssuesTokenAndCookie(t *testing.T) {
	handler := newLoginHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/login",
		strings.NewReader(`{"username":"owner","password":"pw"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := ParseJWT(resp.Token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "owner" {
		t.Fatalf("subject = %q, want owner", claims.Subject)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Value != resp.Token || !cookie.HttpOnly {
		t.Fatalf("cookie = %+v", cookie)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	handler := newLoginHandler(t)

	for _, body := range []string{
		`{"username":"owner","password":"wrong"}`,
		`{"username":"intruder","password":"pw"}`,
		`{}`,
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(body)))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("body %s: status = %d, want 401", body, rec.Code)
		}
	}
}

func TestLoginMethodAndPayload(t *testing.T) {
	handler := newLoginHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/login", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(`{`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("broken json = %d, want 400", rec.Code)
	}
}
