package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"

	"github.com/you/authsvc/internal/config"
	httpx "github.com/you/authsvc/internal/http"
	"github.com/you/authsvc/internal/http/handlers"
	"github.com/you/authsvc/internal/http/middleware"
	"github.com/you/authsvc/internal/infrastructure/auth"
)

func Run(cfg *config.Config) error {
	gin.SetMode(cfg.GinMode)

	c, err := NewContainer(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	cas, err := auth.NewCasbinService(c.DB, cfg.CasbinModelPath)
	if err != nil {
		return err
	}

	// Handlers
	authH := handlers.NewAuthHandlers(c.AuthSvc, c.ChangeTokenSvc, c.SessionRepo, c.SessionTokSvc, c.AccountRepo, c.PasswordSvc, cfg.SessionTTL)
	tfH := handlers.NewTwoFactorHandlers(c.TOTPSvc, c.AccountRepo)
	admH := handlers.NewAdminHandlers(c.AccountRepo, c.ChangeTokenSvc)

	// Middleware
	jwtMW := middleware.NewAuthMW(c.SessionTokSvc, c.SessionRepo)
	rateMW := middleware.NewRateLimitMW(c.RateLimiter, cfg.RateLimitExcludedPaths, cfg.RateLimitBypassRoles)
	guardMW := middleware.NewSessionGuardMW(c.SessionRepo, cfg.SessionIdleTimeout, cfg.SessionExcludedPaths)
	casbinMW := middleware.NewCasbinMW(cas.E)

	r := httpx.BuildRouter(authH, tfH, admH, jwtMW, rateMW, guardMW, casbinMW)

	if err := seedDefaultPolicies(cas.E); err != nil {
		return err
	}

	// Dead password-change tokens are purged in the background; expiry
	// and single-use are already enforced at read time.
	purgeCtx, cancelPurge := context.WithCancel(context.Background())
	defer cancelPurge()
	go purgeTokens(purgeCtx, c, cfg.TokenPurgeInterval)

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, r)
}

// seedDefaultPolicies installs the admin policy on a fresh installation
// so /admin routes are reachable for the admin role out of the box. An
// already-populated policy table is left alone.
func seedDefaultPolicies(e *casbin.Enforcer) error {
	policies, err := e.GetPolicy()
	if err != nil {
		return fmt.Errorf("failed to load casbin policies: %w", err)
	}
	if len(policies) > 0 {
		return nil
	}

	if _, err := e.AddPolicy("role_admin", "/admin/*", "(GET|POST|PUT|DELETE)"); err != nil {
		return fmt.Errorf("failed to seed casbin admin policy: %w", err)
	}
	if err := e.SavePolicy(); err != nil {
		return fmt.Errorf("failed to persist casbin policies: %w", err)
	}
	log.Println("casbin: seeded default policies")
	return nil
}

func purgeTokens(ctx context.Context, c *Container, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := c.ChangeTokenSvc.PurgeExpired(ctx)
			if err != nil {
				log.Printf("TOKEN_PURGE_FAILED: error=%v timestamp=%s", err, time.Now().UTC().Format(time.RFC3339))
				continue
			}
			if purged > 0 {
				log.Printf("TOKEN_PURGE: removed=%d timestamp=%s", purged, time.Now().UTC().Format(time.RFC3339))
			}
		}
	}
}
