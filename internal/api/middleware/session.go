package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName carries the signed session token
const CookieName = "tb_session"

const contextSessionKey = "session_id"

// SessionMiddleware hands every client a signed session cookie. The
// session ID keys the substitution store, so tampering with the cookie
// must not let one session read another's decisions; HS256 signing with
// the server secret prevents that.
type SessionMiddleware struct {
	secret []byte
	ttl    time.Duration
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// NewSessionMiddleware creates the middleware with the signing secret
// and cookie lifetime
func NewSessionMiddleware(secret string, ttl time.Duration) *SessionMiddleware {
	return &SessionMiddleware{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Establish validates the session cookie, minting a fresh session when
// the cookie is absent, expired, or fails verification. The session ID
// ends up in the request context either way.
func (m *SessionMiddleware) Establish() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(CookieName); err == nil {
			if sessionID, err := m.validateToken(token); err == nil {
				c.Set(contextSessionKey, sessionID)
				c.Next()
				return
			}
		}

		sessionID := uuid.New().String()
		token, err := m.signToken(sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "failed to establish session",
			})
			return
		}

		c.SetCookie(CookieName, token, int(m.ttl.Seconds()), "/", "", false, true)
		c.Set(contextSessionKey, sessionID)
		c.Next()
	}
}

func (m *SessionMiddleware) signToken(sessionID string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *SessionMiddleware) validateToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("token is invalid")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("invalid session ID format")
	}
	return claims.Subject, nil
}

// GetSessionID extracts the session ID from the gin context. It is empty
// only when Establish did not run.
func GetSessionID(c *gin.Context) string {
	if id, exists := c.Get(contextSessionKey); exists {
		if sessionID, ok := id.(string); ok {
			return sessionID
		}
	}
	return ""
}
