package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/you/authsvc/domain"
	"github.com/you/authsvc/internal/config"
	"github.com/you/authsvc/internal/infrastructure/auth"
	"github.com/you/authsvc/internal/infrastructure/database"
	"github.com/you/authsvc/internal/infrastructure/repositories"
	"github.com/you/authsvc/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config

	// Infrastructure
	DB          *gorm.DB
	RedisClient *database.RedisClient

	// Repositories
	AccountRepo domain.AccountRepository
	TokenRepo   domain.ChangeTokenRepository
	SessionRepo domain.SessionRepository

	// Services
	PasswordSvc    domain.PasswordService
	SessionTokSvc  domain.SessionTokenService
	LockoutGuard   domain.LockoutGuard
	TOTPSvc        domain.TOTPService
	ChangeTokenSvc domain.ChangeTokenService
	AuthSvc        domain.AuthService
	RateLimiter    domain.RateLimiter
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config) (*Container, error) {
	container := &Container{Config: cfg}

	if err := container.initDatabase(); err != nil {
		return nil, err
	}
	if err := container.initRedis(); err != nil {
		return nil, err
	}

	container.initRepositories()
	container.initServices()

	return container, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db); err != nil {
		return err
	}
	c.DB = db
	return nil
}

func (c *Container) initRedis() error {
	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	return c.RedisClient.Ping(context.Background())
}

func (c *Container) initRepositories() {
	c.AccountRepo = repositories.NewAccountRepository(c.DB)
	c.TokenRepo = repositories.NewChangeTokenRepository(c.DB)
	c.SessionRepo = repositories.NewSessionRepository(c.RedisClient.Client, c.Config.SessionTTL)
}

func (c *Container) initServices() {
	c.PasswordSvc = auth.NewPasswordService()
	c.SessionTokSvc = auth.NewJWTService(c.Config.JWTSecret, c.Config.JWTIssuer, c.Config.SessionTTL)

	c.LockoutGuard = services.NewLockoutGuard(c.AccountRepo, services.LockoutConfig{
		MaxAttempts:     c.Config.MaxLoginAttempts,
		LockoutDuration: c.Config.LockoutDuration,
	})

	c.TOTPSvc = services.NewTOTPService(c.AccountRepo, c.PasswordSvc, c.Config.TOTPIssuer, c.Config.BackupCodeCount)

	signer := auth.NewChangeTokenSigner(c.Config.JWTSecret, c.Config.JWTIssuer, c.Config.TokenExpiry)
	c.ChangeTokenSvc = services.NewChangeTokenService(c.TokenRepo, c.AccountRepo, signer, c.Config.TokenExpiry)

	c.AuthSvc = services.NewAuthService(c.AccountRepo, c.PasswordSvc, c.LockoutGuard, c.TOTPSvc)

	c.RateLimiter = services.NewRedisRateLimiter(c.RedisClient.Client, services.RateLimitConfig{
		MaxRequests: c.Config.RateLimitRequests,
		Window:      c.Config.RateLimitWindow,
	})
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}
