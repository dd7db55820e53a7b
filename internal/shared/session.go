package shared

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FlashMessage represents a one-time notification stored in session.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionManager orchestrates cookie based sessions backed by Redis.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data. A session carries the
// authenticated user id and, once resolved, the tenant's pharmacy id so
// tenant lookup does not hit postgres on every request.
type Session struct {
	ID         string
	userID     string
	pharmacyID string
	csrfToken  string
	flashes    []FlashMessage
	isNew      bool
	dirty      bool
	destroyed  bool
}

type sessionPayload struct {
	UserID     string         `json:"user_id"`
	PharmacyID string         `json:"pharmacy_id"`
	CSRFToken  string         `json:"csrf_token"`
	Flashes    []FlashMessage `json:"flashes"`
}

// NewSessionManager constructs a SessionManager. The secret signs the
// session cookie so a forged or tampered cookie never reaches redis.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{client: client, cookieName: cookieName, ttl: ttl, secure: secure, secret: []byte(secret)}
}

// Load loads the session referenced by the request cookie, or creates a
// fresh one when no usable cookie is present. A cookie that fails
// signature verification is treated the same as no cookie.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	id, ok := sm.verifyCookie(cookie.Value)
	if !ok {
		return sm.newSession(), nil
	}

	raw, err := sm.client.Get(ctx, sm.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = id
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return &Session{
		ID:         id,
		userID:     stored.UserID,
		pharmacyID: stored.PharmacyID,
		csrfToken:  stored.CSRFToken,
		flashes:    stored.Flashes,
	}, nil
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.key(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.dirty || sess.isNew {
		payload, err := json.Marshal(sessionPayload{
			UserID:     sess.userID,
			PharmacyID: sess.pharmacyID,
			CSRFToken:  sess.csrfToken,
			Flashes:    sess.flashes,
		})
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sm.key(sess.ID), payload, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sm.signCookie(sess.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sm.ttl),
	})
	return nil
}

// Destroy marks the session for deletion on the next commit.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess != nil {
		sess.destroyed = true
	}
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// SetUser associates the session with a user id and clears any tenant
// cached for a previous user.
func (s *Session) SetUser(id string) {
	s.userID = id
	s.pharmacyID = ""
	s.dirty = true
}

// User returns the current user id.
func (s *Session) User() string {
	return s.userID
}

// SetPharmacy caches the resolved tenant id on the session.
func (s *Session) SetPharmacy(id uuid.UUID) {
	s.pharmacyID = id.String()
	s.dirty = true
}

// Pharmacy returns the cached tenant id, or uuid.Nil when unresolved.
func (s *Session) Pharmacy() uuid.UUID {
	id, err := uuid.Parse(s.pharmacyID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// SetCSRFToken stores the CSRF token issued for this session.
func (s *Session) SetCSRFToken(token string) {
	s.csrfToken = token
	s.dirty = true
}

// CSRFToken returns the CSRF token issued for this session, if any.
func (s *Session) CSRFToken() string {
	return s.csrfToken
}

// AddFlash queues a flash message.
func (s *Session) AddFlash(msg FlashMessage) {
	s.flashes = append(s.flashes, msg)
	s.dirty = true
}

// PopFlash retrieves and clears the oldest flash message.
func (s *Session) PopFlash() *FlashMessage {
	if len(s.flashes) == 0 {
		return nil
	}
	msg := s.flashes[0]
	s.flashes = s.flashes[1:]
	s.dirty = true
	return &msg
}

func (sm *SessionManager) newSession() *Session {
	return &Session{ID: newSessionID(), isNew: true, dirty: true}
}

func (sm *SessionManager) key(id string) string {
	return "session:" + id
}

// signCookie appends an HMAC-SHA256 signature to the session id. Session
// ids never contain a dot, so the separator is unambiguous.
func (sm *SessionManager) signCookie(id string) string {
	if len(sm.secret) == 0 {
		return id
	}
	return id + "." + sm.signature(id)
}

func (sm *SessionManager) verifyCookie(value string) (string, bool) {
	if len(sm.secret) == 0 {
		return value, true
	}
	id, sig, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(sm.signature(id))) {
		return "", false
	}
	return id, true
}

func (sm *SessionManager) signature(id string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func newSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
