package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"chatclone/internal/session"
)

type contextKey string

const SessionIDKey contextKey = "session_id"

// SessionCookieName is the cookie holding the signed session token.
const SessionCookieName = "chat_session"

// SessionAuth binds each browser to a session in the store through an HS256
// signed cookie. It never rejects a request: a missing, expired or unknown
// session is replaced with a fresh one. The cookie is re-issued on every
// request, so its expiry is an idle timeout like the store's TTL.
type SessionAuth struct {
	Secret []byte
	TTL    time.Duration
	Store  *session.Store
	Secure bool
}

func NewSessionAuth(secret string, ttl time.Duration, store *session.Store, secure bool) *SessionAuth {
	return &SessionAuth{Secret: []byte(secret), TTL: ttl, Store: store, Secure: secure}
}

// GenerateToken signs a token for sessionID that expires after the TTL.
func (a *SessionAuth) GenerateToken(sessionID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionID.String(),
		"exp":        time.Now().Add(a.TTL).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.Secret)
}

// ParseToken verifies tokenStr and returns the session it names.
func (a *SessionAuth) ParseToken(tokenStr string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.Secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, errors.New("invalid token claims")
	}

	idStr, ok := claims["session_id"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing session id in token")
	}
	return uuid.Parse(idStr)
}

// Middleware attaches the caller's session ID to the request context,
// creating a session and setting the cookie when needed.
func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A live session gets a fresh cookie so its expiry follows the
		// store's idle timer rather than the session's creation time.
		if id, ok := a.existing(r); ok {
			if err := a.setCookie(w, id); err != nil {
				log.Printf("Failed to refresh session cookie: %v", err)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), SessionIDKey, id)))
			return
		}

		sess := a.Store.Create()
		if err := a.setCookie(w, sess.ID()); err != nil {
			a.Store.Delete(sess.ID())
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start session", r)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), SessionIDKey, sess.ID())))
	})
}

func (a *SessionAuth) setCookie(w http.ResponseWriter, sessionID uuid.UUID) error {
	token, err := a.GenerateToken(sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (a *SessionAuth) existing(r *http.Request) (uuid.UUID, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := a.ParseToken(cookie.Value)
	if err != nil {
		return uuid.Nil, false
	}
	if _, ok := a.Store.Get(id); !ok {
		return uuid.Nil, false
	}
	return id, true
}

// GetSessionID extracts session_id from request context
func GetSessionID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(SessionIDKey).(uuid.UUID)
	return id
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
	})
}
