package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookieName = "cgpa_session"
	sessionMaxAge     = 365 * 24 * time.Hour
)

type sessionKey struct{}

// sessionManager issues anonymous, HMAC-signed session cookies. The session
// ID keys the visitor's stored form state.
type sessionManager struct {
	secret []byte
	secure bool
}

func newSessionManager(secret string, secure bool) *sessionManager {
	return &sessionManager{secret: []byte(secret), secure: secure}
}

func (m *sessionManager) createSessionValue(id string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(id))
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return payload + "." + signature
}

func (m *sessionManager) verifySessionValue(value string) (string, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}

	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	if _, err := uuid.ParseBytes(decoded); err != nil {
		return "", false
	}

	return string(decoded), true
}

func (m *sessionManager) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    m.createSessionValue(id),
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// middleware attaches the visitor's session ID to the request context,
// issuing a new one when the cookie is missing or does not verify.
func (m *sessionManager) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			id, _ = m.verifySessionValue(cookie.Value)
		}
		if id == "" {
			id = uuid.NewString()
			m.setSessionCookie(w, id)
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}
