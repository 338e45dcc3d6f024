package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	Issuer     string `yaml:"issuer"`
	SessionTTL string `yaml:"session_ttl"`
}

type LockoutConfig struct {
	MaxAttempts     uint   `yaml:"max_attempts"`
	LockoutDuration string `yaml:"lockout_duration"`
}

type ChangeTokenConfig struct {
	Expiry        string `yaml:"expiry"`
	PurgeInterval string `yaml:"purge_interval"`
}

type RateLimitConfig struct {
	Requests      int      `yaml:"requests"`
	Window        string   `yaml:"window"`
	ExcludedPaths []string `yaml:"excluded_paths"`
	BypassRoles   []string `yaml:"bypass_roles"`
}

type SessionConfig struct {
	IdleTimeout   string   `yaml:"idle_timeout"`
	ExcludedPaths []string `yaml:"excluded_paths"`
}

type TOTPConfig struct {
	Issuer          string `yaml:"issuer"`
	BackupCodeCount int    `yaml:"backup_code_count"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type ConfigFile struct {
	App         AppConfig         `yaml:"app"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	JWT         JWTConfig         `yaml:"jwt"`
	Lockout     LockoutConfig     `yaml:"lockout"`
	ChangeToken ChangeTokenConfig `yaml:"change_token"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Session     SessionConfig     `yaml:"session"`
	TOTP        TOTPConfig        `yaml:"totp"`
	Casbin      CasbinConfig      `yaml:"casbin"`
}

type Config struct {
	Port          string
	GinMode       string
	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration

	MaxLoginAttempts uint
	LockoutDuration  time.Duration

	TokenExpiry        time.Duration
	TokenPurgeInterval time.Duration

	RateLimitRequests      int
	RateLimitWindow        time.Duration
	RateLimitExcludedPaths []string
	RateLimitBypassRoles   []string

	SessionIdleTimeout   time.Duration
	SessionExcludedPaths []string

	TOTPIssuer      string
	BackupCodeCount int

	CasbinModelPath string
}

// Documented defaults: 5 attempts, 15 minute lockout, 30 minute token
// expiry, 60 requests per 60 second window, 30 minute idle timeout.
const (
	DefaultMaxLoginAttempts       = 5
	DefaultLockoutMinutes         = 15
	DefaultTokenExpiryMinutes     = 30
	DefaultRateLimitRequests      = 60
	DefaultRateLimitWindowSeconds = 60
	DefaultSessionTimeoutMinutes  = 30
	DefaultBackupCodeCount        = 10
)

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// Load reads config/config.yml when present and fills the gaps from
// environment variables and documented defaults. A missing file is not
// an error so the service can boot from environment alone.
func Load() (*Config, error) {
	return LoadFrom("config/config.yml")
}

// LoadFrom loads configuration from the given yaml path.
func LoadFrom(path string) (*Config, error) {
	file := &ConfigFile{}
	if bytes, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(bytes, file); err != nil {
			return nil, fmt.Errorf("could not parse config yaml: %w", err)
		}
	}

	cfg := &Config{
		Port:          orDefault(intStr(file.App.Port), env("PORT", "8080")),
		GinMode:       orDefault(file.App.GinMode, env("GIN_MODE", "release")),
		DSN:           orDefault(file.Database.DSN, os.Getenv("DATABASE_DSN")),
		RedisAddr:     orDefault(file.Redis.Addr, env("REDIS_ADDR", "localhost:6379")),
		RedisPassword: orDefault(file.Redis.Password, os.Getenv("REDIS_PASSWORD")),
		RedisDB:       file.Redis.DB,

		JWTSecret: orDefault(file.JWT.Secret, os.Getenv("JWT_SECRET")),
		JWTIssuer: orDefault(file.JWT.Issuer, env("JWT_ISSUER", "authsvc")),

		MaxLoginAttempts: file.Lockout.MaxAttempts,

		RateLimitRequests:      file.RateLimit.Requests,
		RateLimitExcludedPaths: file.RateLimit.ExcludedPaths,
		RateLimitBypassRoles:   file.RateLimit.BypassRoles,

		SessionExcludedPaths: file.Session.ExcludedPaths,

		TOTPIssuer:      orDefault(file.TOTP.Issuer, env("TOTP_ISSUER", "authsvc")),
		BackupCodeCount: file.TOTP.BackupCodeCount,

		CasbinModelPath: orDefault(file.Casbin.ModelPath, env("CASBIN_MODEL_PATH", "config/casbin_model.conf")),
	}

	if cfg.MaxLoginAttempts == 0 {
		cfg.MaxLoginAttempts = uint(envInt("MAX_LOGIN_ATTEMPTS", DefaultMaxLoginAttempts))
	}
	if cfg.RateLimitRequests == 0 {
		cfg.RateLimitRequests = envInt("RATE_LIMIT_REQUESTS", DefaultRateLimitRequests)
	}
	if cfg.BackupCodeCount == 0 {
		cfg.BackupCodeCount = DefaultBackupCodeCount
	}
	if len(cfg.SessionExcludedPaths) == 0 {
		cfg.SessionExcludedPaths = []string{"/auth/login", "/auth/logout", "/auth/password-change", "/health", "/static"}
	}

	var err error
	if cfg.SessionTTL, err = duration(file.JWT.SessionTTL, "SESSION_TTL", 12*time.Hour); err != nil {
		return nil, fmt.Errorf("invalid session TTL: %w", err)
	}
	if cfg.LockoutDuration, err = duration(file.Lockout.LockoutDuration, "LOCKOUT_MINUTES_DURATION", DefaultLockoutMinutes*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid lockout duration: %w", err)
	}
	if cfg.TokenExpiry, err = duration(file.ChangeToken.Expiry, "TOKEN_EXPIRY_DURATION", DefaultTokenExpiryMinutes*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid token expiry: %w", err)
	}
	if cfg.TokenPurgeInterval, err = duration(file.ChangeToken.PurgeInterval, "TOKEN_PURGE_INTERVAL", time.Hour); err != nil {
		return nil, fmt.Errorf("invalid token purge interval: %w", err)
	}
	if cfg.RateLimitWindow, err = duration(file.RateLimit.Window, "RATE_LIMIT_WINDOW", DefaultRateLimitWindowSeconds*time.Second); err != nil {
		return nil, fmt.Errorf("invalid rate limit window: %w", err)
	}
	if cfg.SessionIdleTimeout, err = duration(file.Session.IdleTimeout, "SESSION_TIMEOUT_DURATION", DefaultSessionTimeoutMinutes*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid session idle timeout: %w", err)
	}

	// Environment overrides using the documented knob names.
	if v := os.Getenv("LOCKOUT_MINUTES"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOCKOUT_MINUTES: %w", err)
		}
		cfg.LockoutDuration = time.Duration(m) * time.Minute
	}
	if v := os.Getenv("TOKEN_EXPIRY_MINUTES"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_EXPIRY_MINUTES: %w", err)
		}
		cfg.TokenExpiry = time.Duration(m) * time.Minute
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		s, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW_SECONDS: %w", err)
		}
		cfg.RateLimitWindow = time.Duration(s) * time.Second
	}
	if v := os.Getenv("SESSION_TIMEOUT_MINUTES"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TIMEOUT_MINUTES: %w", err)
		}
		cfg.SessionIdleTimeout = time.Duration(m) * time.Minute
	}

	return cfg, nil
}

func duration(fileVal, envKey string, def time.Duration) (time.Duration, error) {
	if fileVal != "" {
		return time.ParseDuration(fileVal)
	}
	if v := os.Getenv(envKey); v != "" {
		return time.ParseDuration(v)
	}
	return def, nil
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func intStr(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
