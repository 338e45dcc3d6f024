package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/you/authsvc/domain"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc     domain.AuthService
	tokenSvc    domain.ChangeTokenService
	sessionRepo domain.SessionRepository
	sessionTok  domain.SessionTokenService
	accountRepo domain.AccountRepository
	passwordSvc domain.PasswordService
	sessionTTL  time.Duration
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(
	authSvc domain.AuthService,
	tokenSvc domain.ChangeTokenService,
	sessionRepo domain.SessionRepository,
	sessionTok domain.SessionTokenService,
	accountRepo domain.AccountRepository,
	passwordSvc domain.PasswordService,
	sessionTTL time.Duration,
) *AuthHandlers {
	return &AuthHandlers{
		authSvc:     authSvc,
		tokenSvc:    tokenSvc,
		sessionRepo: sessionRepo,
		sessionTok:  sessionTok,
		accountRepo: accountRepo,
		passwordSvc: passwordSvc,
		sessionTTL:  sessionTTL,
	}
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// PasswordChangeRequest represents the forced password-change submission
type PasswordChangeRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
	Confirm     string `json:"confirm" binding:"required"`
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.authSvc.AuthenticateWithTOTP(c.Request.Context(), req.Username, req.Password, req.TOTPCode, c.ClientIP())
	if err != nil {
		h.renderAuthError(c, err)
		return
	}

	// A forced password change blocks normal session creation; the
	// client is routed to the token-bound change flow instead.
	if account.MustChangePassword {
		signed, err := h.tokenSvc.Issue(c.Request.Context(), account)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
			return
		}
		log.Printf("PASSWORD_CHANGE_REQUIRED: account_id=%d username=%s timestamp=%s",
			account.ID, account.Username, time.Now().UTC().Format(time.RFC3339))
		c.JSON(http.StatusAccepted, gin.H{
			"data": gin.H{
				"password_change_required": true,
				"change_token":             signed,
				"redirect":                 "/auth/password-change?token=" + signed,
			},
		})
		return
	}

	h.startSession(c, account)
}

// PasswordChangeForm renders the form payload for a valid token. The
// check is non-destructive so a page refresh does not burn the token.
func (h *AuthHandlers) PasswordChangeForm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token required"})
		return
	}

	account, err := h.tokenSvc.Verify(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"username": account.Username,
			"token":    token,
		},
	})
}

// PasswordChangeSubmit consumes the token, updates the password and
// starts a normal session.
func (h *AuthHandlers) PasswordChangeSubmit(c *gin.Context) {
	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.NewPassword != req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}

	account, err := h.tokenSvc.Consume(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	hash, err := h.passwordSvc.Hash(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	if err := h.accountRepo.UpdatePassword(c.Request.Context(), account.ID, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	log.Printf("PASSWORD_CHANGED: account_id=%d username=%s timestamp=%s",
		account.ID, account.Username, time.Now().UTC().Format(time.RFC3339))

	account.MustChangePassword = false
	h.startSession(c, account)
}

// Me handles getting the account profile (requires authentication)
func (h *AuthHandlers) Me(c *gin.Context) {
	accountIDStr, exists := c.Get("account_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account ID not found in context"})
		return
	}

	accountID, err := strconv.ParseUint(accountIDStr.(string), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
		return
	}

	account, err := h.accountRepo.FindByID(c.Request.Context(), uint(accountID))
	if err != nil {
		if err == domain.ErrAccountNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get account profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"id":            account.ID,
			"username":      account.Username,
			"role":          account.Role,
			"totp_enabled":  account.TOTPEnabled && account.TOTPConfirmed,
			"last_login_ip": account.LastLoginIP,
			"created_at":    account.CreatedAt,
			"updated_at":    account.UpdatedAt,
		},
	})
}

// Logout handles logout (requires authentication)
func (h *AuthHandlers) Logout(c *gin.Context) {
	sessionID, exists := c.Get("session_id")
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID not found"})
		return
	}

	if err := h.sessionRepo.Delete(c.Request.Context(), sessionID.(string)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Logged out successfully",
		},
	})
}

// startSession creates the session record and responds with its token.
func (h *AuthHandlers) startSession(c *gin.Context, account *domain.Account) {
	now := time.Now()
	session := &domain.Session{
		ID:           "sess_" + uuid.NewString(),
		AccountID:    account.ID,
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := h.sessionRepo.Create(c.Request.Context(), session); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	accessToken, err := h.sessionTok.Generate(account.ID, account.Role, session.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	log.Printf("LOGIN_SUCCESS: account_id=%d username=%s client_ip=%s timestamp=%s",
		account.ID, account.Username, c.ClientIP(), now.UTC().Format(time.RFC3339))

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token": accessToken,
			"token_type":   "Bearer",
			"expires_in":   int64(h.sessionTTL.Seconds()),
			"account": gin.H{
				"id":       account.ID,
				"username": account.Username,
				"role":     account.Role,
			},
		},
	})
}

// renderAuthError maps authentication errors to responses. Counters
// are revealed only where the design deliberately trades them for
// usability; everything else stays generic.
func (h *AuthHandlers) renderAuthError(c *gin.Context, err error) {
	var lockedErr *domain.AccountLockedError
	if errors.As(err, &lockedErr) {
		minutes := int(lockedErr.RetryAfter.Minutes())
		if minutes < 1 {
			minutes = 1
		}
		c.JSON(http.StatusLocked, gin.H{
			"error":           "Account temporarily locked",
			"retry_after":     int(lockedErr.RetryAfter.Seconds()),
			"lockout_minutes": minutes,
		})
		return
	}

	var credsErr *domain.InvalidCredentialsError
	if errors.As(err, &credsErr) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":              "Invalid credentials",
			"remaining_attempts": credsErr.RemainingAttempts,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrTwoFactorRequired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":               "Two-factor code required",
			"two_factor_required": true,
		})
	case errors.Is(err, domain.ErrTwoFactorInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid two-factor code"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
	}
}
