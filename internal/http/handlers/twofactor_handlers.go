package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/authsvc/domain"
)

// TwoFactorHandlers handles 2FA enrollment and management requests.
// All routes require an authenticated session.
type TwoFactorHandlers struct {
	totpSvc     domain.TOTPService
	accountRepo domain.AccountRepository
}

// NewTwoFactorHandlers creates new two-factor handlers
func NewTwoFactorHandlers(totpSvc domain.TOTPService, accountRepo domain.AccountRepository) *TwoFactorHandlers {
	return &TwoFactorHandlers{
		totpSvc:     totpSvc,
		accountRepo: accountRepo,
	}
}

// CodeRequest carries a submitted TOTP or backup code
type CodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// Setup generates a new secret and backup codes. The cleartext backup
// codes appear in this response only.
func (h *TwoFactorHandlers) Setup(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	setup, err := h.totpSvc.Setup(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set up two-factor authentication"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"secret":       setup.Secret,
			"otpauth_url":  setup.OTPAuthURL,
			"backup_codes": setup.BackupCodes,
			"message":      "Scan the QR code and confirm with a generated code",
		},
	})
}

// Confirm validates a code from the authenticator before enabling 2FA
func (h *TwoFactorHandlers) Confirm(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.totpSvc.Confirm(c.Request.Context(), account, req.Code); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid two-factor code"})
		return
	}

	log.Printf("TOTP_ENABLED: account_id=%d username=%s timestamp=%s",
		account.ID, account.Username, time.Now().UTC().Format(time.RFC3339))

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Two-factor authentication enabled",
		},
	})
}

// Disable turns 2FA off after revalidating the caller with a code
func (h *TwoFactorHandlers) Disable(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valid, err := h.totpSvc.Verify(c.Request.Context(), account, req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify two-factor code"})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid two-factor code"})
		return
	}

	if err := h.totpSvc.Disable(c.Request.Context(), account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable two-factor authentication"})
		return
	}

	log.Printf("TOTP_DISABLED: account_id=%d username=%s timestamp=%s",
		account.ID, account.Username, time.Now().UTC().Format(time.RFC3339))

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "Two-factor authentication disabled",
		},
	})
}

// RegenerateBackupCodes replaces the backup codes after revalidation
func (h *TwoFactorHandlers) RegenerateBackupCodes(c *gin.Context) {
	account, ok := h.currentAccount(c)
	if !ok {
		return
	}

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	codes, err := h.totpSvc.RegenerateBackupCodes(c.Request.Context(), account, req.Code)
	if err != nil {
		if err == domain.ErrTwoFactorInvalid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid two-factor code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate backup codes"})
		return
	}

	log.Printf("BACKUP_CODES_REGENERATED: account_id=%d username=%s timestamp=%s",
		account.ID, account.Username, time.Now().UTC().Format(time.RFC3339))

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"backup_codes": codes,
		},
	})
}

// currentAccount loads the authenticated account from the request
// context; it writes the error response itself on failure.
func (h *TwoFactorHandlers) currentAccount(c *gin.Context) (*domain.Account, bool) {
	accountIDStr, exists := c.Get("account_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account ID not found in context"})
		return nil, false
	}

	accountID, err := strconv.ParseUint(accountIDStr.(string), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
		return nil, false
	}

	account, err := h.accountRepo.FindByID(c.Request.Context(), uint(accountID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return nil, false
	}
	return account, true
}
