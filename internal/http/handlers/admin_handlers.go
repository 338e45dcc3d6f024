package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/authsvc/domain"
)

// AdminHandlers handles administrative account operations. Routes are
// guarded by the casbin enforcer in addition to authentication.
type AdminHandlers struct {
	accountRepo domain.AccountRepository
	tokenSvc    domain.ChangeTokenService
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(accountRepo domain.AccountRepository, tokenSvc domain.ChangeTokenService) *AdminHandlers {
	return &AdminHandlers{
		accountRepo: accountRepo,
		tokenSvc:    tokenSvc,
	}
}

// IssuePasswordToken forces a password change for the account and
// issues (or re-issues) its change token. Issuing invalidates any prior
// unused token for the account.
func (h *AdminHandlers) IssuePasswordToken(c *gin.Context) {
	accountID, err := strconv.ParseUint(c.Param("id"), 10, 32)
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	if !account.MustChangePassword {
		account.MustChangePassword = true
		if err := h.accountRepo.Update(c.Request.Context(), account); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to flag account"})
			return
		}
	}

	signed, err := h.tokenSvc.Issue(c.Request.Context(), account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	adminID, _ := c.Get("account_id")
	log.Printf("PASSWORD_TOKEN_ISSUED: account_id=%d username=%s admin_id=%v timestamp=%s",
		account.ID, account.Username, adminID, time.Now().UTC().Format(time.RFC3339))

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"change_token": signed,
			"redirect":     "/auth/password-change?token=" + signed,
		},
	})
}
