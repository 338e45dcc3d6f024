package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/authsvc/domain"
)

// SessionGuardMW enforces the idle-session timeout. It runs after the
// auth middleware on authenticated routes; excluded paths (login,
// logout, static assets) skip the check.
type SessionGuardMW struct {
	sessionRepo   domain.SessionRepository
	idleTimeout   time.Duration
	excludedPaths []string
}

// NewSessionGuardMW creates new session guard middleware wrapper
func NewSessionGuardMW(sessionRepo domain.SessionRepository, idleTimeout time.Duration, excludedPaths []string) *SessionGuardMW {
	return &SessionGuardMW{
		sessionRepo:   sessionRepo,
		idleTimeout:   idleTimeout,
		excludedPaths: excludedPaths,
	}
}

// Guard returns the idle-timeout middleware. An idle session is
// invalidated on its next use and the request is treated as
// unauthenticated.
func (mw *SessionGuardMW) Guard() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range mw.excludedPaths {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		sessionID, exists := c.Get("session_id")
		if !exists {
			c.Next()
			return
		}

		sid, ok := sessionID.(string)
		if !ok || sid == "" {
			c.Next()
			return
		}

		session, err := mw.sessionRepo.FindByID(c.Request.Context(), sid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session invalid or expired"})
			c.Abort()
			return
		}

		now := time.Now()

		// No recorded activity yet: start the idle clock and continue.
		if session.LastActivity.IsZero() {
			if err := mw.sessionRepo.Touch(c.Request.Context(), sid, now); err != nil {
				log.Printf("SESSION_TOUCH_FAILED: session_id=%s error=%v timestamp=%s",
					sid, err, now.UTC().Format(time.RFC3339))
			}
			c.Next()
			return
		}

		if now.Sub(session.LastActivity) > mw.idleTimeout {
			if err := mw.sessionRepo.Delete(c.Request.Context(), sid); err != nil {
				log.Printf("SESSION_DELETE_FAILED: session_id=%s error=%v timestamp=%s",
					sid, err, now.UTC().Format(time.RFC3339))
			}
			log.Printf("SESSION_TIMEOUT: session_id=%s account_id=%d timestamp=%s",
				sid, session.AccountID, now.UTC().Format(time.RFC3339))
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Session expired due to inactivity",
				"message": "Please log in again",
			})
			c.Abort()
			return
		}

		if err := mw.sessionRepo.Touch(c.Request.Context(), sid, now); err != nil {
			log.Printf("SESSION_TOUCH_FAILED: session_id=%s error=%v timestamp=%s",
				sid, err, now.UTC().Format(time.RFC3339))
		}
		c.Next()
	})
}
