package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/authsvc/domain"
)

// RateLimitMW wraps the rate limiter and its exclusion rules
type RateLimitMW struct {
	limiter       domain.RateLimiter
	excludedPaths []string
	bypassRoles   map[string]bool
}

// NewRateLimitMW creates new rate limit middleware wrapper
func NewRateLimitMW(limiter domain.RateLimiter, excludedPaths, bypassRoles []string) *RateLimitMW {
	roles := make(map[string]bool, len(bypassRoles))
	for _, r := range bypassRoles {
		roles[r] = true
	}
	return &RateLimitMW{
		limiter:       limiter,
		excludedPaths: excludedPaths,
		bypassRoles:   roles,
	}
}

// Limit returns the rate limiting middleware. The identity key is the
// authenticated account when known, the client IP otherwise. A failing
// counter store fails open: infrastructure trouble must not become a
// denial of service for legitimate traffic.
func (mw *RateLimitMW) Limit() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range mw.excludedPaths {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		if role, ok := c.Get("account_role"); ok {
			if roleStr, ok := role.(string); ok && mw.bypassRoles[roleStr] {
				c.Next()
				return
			}
		}

		key := c.ClientIP()
		if accountID, ok := c.Get("account_id"); ok {
			if idStr, ok := accountID.(string); ok && idStr != "" {
				key = "account:" + idStr
			}
		}

		decision, err := mw.limiter.Check(c.Request.Context(), key)
		if err != nil {
			log.Printf("RATE_LIMIT_STORE_ERROR: key=%s path=%s error=%v timestamp=%s",
				key, path, err, time.Now().UTC().Format(time.RFC3339))
			c.Next()
			return
		}

		if decision.Allowed {
			c.Next()
			return
		}

		retrySeconds := int(decision.RetryAfter.Seconds())
		if retrySeconds < 1 {
			retrySeconds = 1
		}

		log.Printf("RATE_LIMIT_EXCEEDED: key=%s path=%s retry_after=%d timestamp=%s",
			key, path, retrySeconds, time.Now().UTC().Format(time.RFC3339))

		c.Header("Retry-After", fmt.Sprintf("%d", retrySeconds))

		if strings.Contains(c.GetHeader("Accept"), "text/html") {
			c.Data(http.StatusTooManyRequests, "text/html; charset=utf-8",
				[]byte(fmt.Sprintf("<html><body><h1>Too Many Requests</h1><p>Please retry in %d seconds.</p></body></html>", retrySeconds)))
		} else {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": retrySeconds,
			})
		}
		c.Abort()
	})
}
