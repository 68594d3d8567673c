package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestSessionValue_RoundTrip(t *testing.T) {
	m := newSessionManager("secret", false)
	id := uuid.NewString()

	got, ok := m.verifySessionValue(m.createSessionValue(id))
	if !ok || got != id {
		t.Fatalf("expected %q, got %q (ok=%v)", id, got, ok)
	}
}

func TestSessionValue_RejectsTampering(t *testing.T) {
	m := newSessionManager("secret", false)
	value := m.createSessionValue(uuid.NewString())

	if _, ok := newSessionManager("other", false).verifySessionValue(value); ok {
		t.Fatalf("expected value signed with another secret to be rejected")
	}
	if _, ok := m.verifySessionValue(value + "00"); ok {
		t.Fatalf("expected altered signature to be rejected")
	}
	if _, ok := m.verifySessionValue("no-dot"); ok {
		t.Fatalf("expected malformed value to be rejected")
	}
	if _, ok := m.verifySessionValue(m.createSessionValue("not-a-uuid")); ok {
		t.Fatalf("expected non-uuid session id to be rejected")
	}
}

func TestSessionMiddleware(t *testing.T) {
	m := newSessionManager("secret", true)

	var seen string
	handler := m.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = sessionID(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName {
		t.Fatalf("expected a session cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Fatalf("expected HttpOnly and Secure cookie, got %+v", cookies[0])
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid session id, got %q", seen)
	}
	first := seen

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != first {
		t.Fatalf("expected session %q to be reused, got %q", first, seen)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no new cookie for a valid session")
	}
}
