package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/authsvc/domain"
	"github.com/you/authsvc/internal/mocks"
)

type authHandlersFixture struct {
	handlers    *AuthHandlers
	authSvc     *mocks.MockAuthService
	tokenSvc    *mocks.MockChangeTokenService
	sessionRepo *mocks.MockSessionRepository
	accountRepo *mocks.MockAccountRepository
	router      *gin.Engine
}

func newAuthHandlersFixture() *authHandlersFixture {
	gin.SetMode(gin.TestMode)

	f := &authHandlersFixture{
		authSvc:     mocks.NewMockAuthService(),
		tokenSvc:    mocks.NewMockChangeTokenService(),
		sessionRepo: mocks.NewMockSessionRepository(),
		accountRepo: mocks.NewMockAccountRepository(),
	}
	f.handlers = NewAuthHandlers(
		f.authSvc,
		f.tokenSvc,
		f.sessionRepo,
		mocks.NewMockSessionTokenService(),
		f.accountRepo,
		mocks.NewMockPasswordService(),
		time.Hour,
	)

	f.router = gin.New()
	f.router.POST("/auth/login", f.handlers.Login)
	f.router.GET("/auth/password-change", f.handlers.PasswordChangeForm)
	f.router.POST("/auth/password-change", f.handlers.PasswordChangeSubmit)

	return f
}

func (f *authHandlersFixture) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestLogin_Success(t *testing.T) {
	f := newAuthHandlersFixture()

	f.authSvc.AuthenticateWithTOTPFunc = func(ctx context.Context, username, password, totpCode, clientIP string) (*domain.Account, error) {
		return &domain.Account{ID: 1, Username: username, Role: "user"}, nil
	}

	var created *domain.Session
	f.sessionRepo.CreateFunc = func(ctx context.Context, session *domain.Session) error {
		created = session
		return nil
	}

	w := f.postJSON(t, "/auth/login", gin.H{"username": "alice", "password": "secret"})

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "mock_access_token", data["access_token"])
	assert.Equal(t, "Bearer", data["token_type"])
	assert.Equal(t, float64(3600), data["expires_in"])

	account := data["account"].(map[string]interface{})
	assert.Equal(t, "alice", account["username"])

	require.NotNil(t, created)
	assert.Equal(t, uint(1), created.AccountID)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.LastActivity.IsZero())
}

func TestLogin_ForcedPasswordChange(t *testing.T) {
	f := newAuthHandlersFixture()

	f.authSvc.AuthenticateWithTOTPFunc = func(ctx context.Context, username, password, totpCode, clientIP string) (*domain.Account, error) {
		return &domain.Account{ID: 1, Username: username, MustChangePassword: true}, nil
	}
	f.tokenSvc.IssueFunc = func(ctx context.Context, account *domain.Account) (string, error) {
		return "signed_change_token", nil
	}

	sessions := 0
	f.sessionRepo.CreateFunc = func(ctx context.Context, session *domain.Session) error {
		sessions++
		return nil
	}

	w := f.postJSON(t, "/auth/login", gin.H{"username": "alice", "password": "secret"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	response := decodeBody(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["password_change_required"])
	assert.Equal(t, "signed_change_token", data["change_token"])
	assert.Equal(t, "/auth/password-change?token=signed_change_token", data["redirect"])
	assert.Zero(t, sessions, "a forced change must not start a session")
}

func TestLogin_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		authErr        error
		expectedStatus int
		checkBody      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:           "locked account",
			authErr:        &domain.AccountLockedError{RetryAfter: 900 * time.Second},
			expectedStatus: http.StatusLocked,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Account temporarily locked", body["error"])
				assert.Equal(t, float64(900), body["retry_after"])
				assert.Equal(t, float64(15), body["lockout_minutes"])
			},
		},
		{
			name:           "wrong password with counter",
			authErr:        &domain.InvalidCredentialsError{RemainingAttempts: 2},
			expectedStatus: http.StatusUnauthorized,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Invalid credentials", body["error"])
				assert.Equal(t, float64(2), body["remaining_attempts"])
			},
		},
		{
			name:           "unknown account",
			authErr:        domain.ErrInvalidCredentials,
			expectedStatus: http.StatusUnauthorized,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Invalid credentials", body["error"])
				assert.NotContains(t, body, "remaining_attempts")
			},
		},
		{
			name:           "two-factor challenge",
			authErr:        domain.ErrTwoFactorRequired,
			expectedStatus: http.StatusUnauthorized,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, true, body["two_factor_required"])
			},
		},
		{
			name:           "bad two-factor code",
			authErr:        domain.ErrTwoFactorInvalid,
			expectedStatus: http.StatusUnauthorized,
			checkBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Invalid two-factor code", body["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthHandlersFixture()
			f.authSvc.AuthenticateWithTOTPFunc = func(ctx context.Context, username, password, totpCode, clientIP string) (*domain.Account, error) {
				return nil, tt.authErr
			}

			w := f.postJSON(t, "/auth/login", gin.H{"username": "alice", "password": "wrong"})

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.checkBody(t, decodeBody(t, w))
		})
	}
}

func TestLogin_MissingFields(t *testing.T) {
	f := newAuthHandlersFixture()

	w := f.postJSON(t, "/auth/login", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordChangeForm(t *testing.T) {
	f := newAuthHandlersFixture()

	verifies := 0
	f.tokenSvc.VerifyFunc = func(ctx context.Context, signedToken string) (*domain.Account, error) {
		verifies++
		if signedToken != "valid_token" {
			return nil, domain.ErrChangeTokenInvalid
		}
		return &domain.Account{ID: 1, Username: "alice"}, nil
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/password-change?token=valid_token", nil)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "valid_token", data["token"])

	// Rendering the form must not burn the token; refresh still works.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/password-change?token=valid_token", nil)
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, verifies)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/password-change?token=bogus", nil)
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/auth/password-change", nil)
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordChangeSubmit_Success(t *testing.T) {
	f := newAuthHandlersFixture()

	f.tokenSvc.ConsumeFunc = func(ctx context.Context, signedToken string) (*domain.Account, error) {
		if signedToken != "valid_token" {
			return nil, domain.ErrChangeTokenInvalid
		}
		return &domain.Account{ID: 1, Username: "alice", MustChangePassword: true}, nil
	}

	var updatedHash string
	f.accountRepo.UpdatePasswordFunc = func(ctx context.Context, accountID uint, passwordHash string) error {
		updatedHash = passwordHash
		return nil
	}

	w := f.postJSON(t, "/auth/password-change", gin.H{
		"token":        "valid_token",
		"new_password": "brand-new-pass",
		"confirm":      "brand-new-pass",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hashed_brand-new-pass", updatedHash)

	// The change flow ends in a normal session.
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "mock_access_token", data["access_token"])
}

func TestPasswordChangeSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name           string
		body           gin.H
		consumeErr     error
		expectedStatus int
	}{
		{
			name:           "mismatched confirmation",
			body:           gin.H{"token": "valid_token", "new_password": "brand-new-pass", "confirm": "other-pass"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "short password",
			body:           gin.H{"token": "valid_token", "new_password": "short", "confirm": "short"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "spent token",
			body:           gin.H{"token": "spent_token", "new_password": "brand-new-pass", "confirm": "brand-new-pass"},
			consumeErr:     domain.ErrChangeTokenInvalid,
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthHandlersFixture()
			f.tokenSvc.ConsumeFunc = func(ctx context.Context, signedToken string) (*domain.Account, error) {
				if tt.consumeErr != nil {
					return nil, tt.consumeErr
				}
				return &domain.Account{ID: 1, Username: "alice"}, nil
			}

			updates := 0
			f.accountRepo.UpdatePasswordFunc = func(ctx context.Context, accountID uint, passwordHash string) error {
				updates++
				return nil
			}

			w := f.postJSON(t, "/auth/password-change", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Zero(t, updates, "rejected submissions must not touch the password")
		})
	}
}
