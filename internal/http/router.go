package httpx

import (
	"github.com/gin-gonic/gin"
	"github.com/you/authsvc/internal/http/handlers"
	"github.com/you/authsvc/internal/http/middleware"
)

// BuildRouter wires handlers and middleware. The rate limiter runs on
// the public auth group keyed by client IP and on the authenticated
// groups keyed by account, so each request passes one limiter.
func BuildRouter(
	ah *handlers.AuthHandlers,
	tfh *handlers.TwoFactorHandlers,
	adh *handlers.AdminHandlers,
	jwtmw *middleware.AuthMW,
	rlmw *middleware.RateLimitMW,
	sgmw *middleware.SessionGuardMW,
	cbmw *middleware.CasbinMW,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	auth := r.Group("/auth").Use(rlmw.Limit())
	auth.POST("/login", ah.Login)
	auth.GET("/password-change", ah.PasswordChangeForm)
	auth.POST("/password-change", ah.PasswordChangeSubmit)

	v := r.Group("/").Use(jwtmw.WithJWT(), rlmw.Limit(), sgmw.Guard())
	v.GET("/auth/me", ah.Me)
	v.POST("/auth/logout", ah.Logout)
	v.POST("/auth/2fa/setup", tfh.Setup)
	v.POST("/auth/2fa/confirm", tfh.Confirm)
	v.POST("/auth/2fa/disable", tfh.Disable)
	v.POST("/auth/2fa/backup-codes/regenerate", tfh.RegenerateBackupCodes)

	adm := r.Group("/admin").Use(jwtmw.WithJWT(), rlmw.Limit(), sgmw.Guard(), cbmw.Enforce())
	adm.POST("/accounts/:id/password-token", adh.IssuePasswordToken)

	return r
}
