package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/you/authsvc/domain"
)

// JWTServiceImpl implements domain.SessionTokenService
type JWTServiceImpl struct {
	secretKey  []byte
	issuer     string
	sessionTTL time.Duration
}

// NewJWTService creates a new JWT service for session access tokens
func NewJWTService(secretKey string, issuer string, sessionTTL time.Duration) domain.SessionTokenService {
	return &JWTServiceImpl{
		secretKey:  []byte(secretKey),
		issuer:     issuer,
		sessionTTL: sessionTTL,
	}
}

// generateJTI creates a unique JWT ID
func (j *JWTServiceImpl) generateJTI() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Generate implements domain.SessionTokenService
func (j *JWTServiceImpl) Generate(accountID uint, role string, sessionID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"account_id": accountID,
		"role":       role,
		"session_id": sessionID,
		"iss":        j.issuer,
		"iat":        now.Unix(),
		"exp":        now.Add(j.sessionTTL).Unix(),
		"jti":        j.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// Validate implements domain.SessionTokenService
func (j *JWTServiceImpl) Validate(tokenString string) (*domain.SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return j.secretKey, nil
	})

	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	accountID, ok := claims["account_id"].(float64)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	role, ok := claims["role"].(string)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	sessionID, ok := claims["session_id"].(string)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}

	return &domain.SessionClaims{
		AccountID: uint(accountID),
		Role:      role,
		SessionID: sessionID,
		IssuedAt:  int64(iat),
		ExpiresAt: int64(exp),
	}, nil
}
