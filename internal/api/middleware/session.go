package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// SessionCookie carries the signed session token for browsers
	SessionCookie = "symptomchat_session"
	// SessionHeader carries the token for other clients
	SessionHeader = "X-Session-Token"

	sessionIDKey = "session_id"
)

var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims identifies an anonymous chat session
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies session tokens
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewSessionManager creates a manager signing with secret. Tokens expire
// after ttl; secure marks the cookie HTTPS-only.
func NewSessionManager(secret string, ttl time.Duration, secure bool) *SessionManager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, secure: secure}
}

// Issue signs a token for sessionID
func (m *SessionManager) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims
func (m *SessionManager) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Session resolves the caller's chat session from the token header, the
// cookie or a "token" query parameter, starting a new session when none is
// valid. The token is echoed in SessionHeader.
func Session(m *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			if claims, err := m.Parse(token); err == nil {
				c.Set(sessionIDKey, claims.SessionID)
				c.Header(SessionHeader, token)
				c.Next()
				return
			}
		}

		sessionID := uuid.NewString()
		token, err := m.Issue(sessionID)
		if err != nil {
			log.Printf("Failed to issue session: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, token, int(m.ttl.Seconds()), "/", "", m.secure, true)
		c.Header(SessionHeader, token)
		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(SessionHeader)); token != "" {
		return token
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// GetSessionID returns the session resolved by Session
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
