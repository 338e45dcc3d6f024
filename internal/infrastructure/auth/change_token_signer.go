package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/you/authsvc/domain"
)

// ChangeTokenSigner wraps the random secret of a password-change token
// in a tamper-evident signed envelope. The signature blocks forgery;
// the envelope max-age mirrors the database row TTL. The row remains
// the source of truth for single use and revocation.
type ChangeTokenSigner struct {
	secretKey []byte
	issuer    string
	maxAge    time.Duration
}

// ChangeTokenPayload is the envelope content after verification.
type ChangeTokenPayload struct {
	AccountID uint
	Secret    string
}

// NewChangeTokenSigner creates a signer for password-change envelopes
func NewChangeTokenSigner(secretKey string, issuer string, maxAge time.Duration) *ChangeTokenSigner {
	return &ChangeTokenSigner{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		maxAge:    maxAge,
	}
}

// Sign produces the signed envelope carrying the row secret and owner.
func (s *ChangeTokenSigner) Sign(accountID uint, secret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"account_id": accountID,
		"secret":     secret,
		"purpose":    "password_change",
		"iss":        s.issuer,
		"iat":        now.Unix(),
		"exp":        now.Add(s.maxAge).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// Unwrap validates the envelope and returns its payload. Every failure
// collapses to ErrChangeTokenInvalid so callers cannot distinguish a
// bad signature from an expired envelope.
func (s *ChangeTokenSigner) Unwrap(signedToken string) (*ChangeTokenPayload, error) {
	token, err := jwt.Parse(signedToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrChangeTokenInvalid
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil || !token.Valid {
		return nil, domain.ErrChangeTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrChangeTokenInvalid
	}

	if purpose, ok := claims["purpose"].(string); !ok || purpose != "password_change" {
		return nil, domain.ErrChangeTokenInvalid
	}

	accountID, ok := claims["account_id"].(float64)
	if !ok {
		return nil, domain.ErrChangeTokenInvalid
	}

	secret, ok := claims["secret"].(string)
	if !ok || secret == "" {
		return nil, domain.ErrChangeTokenInvalid
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, domain.ErrChangeTokenInvalid
	}
	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return nil, domain.ErrChangeTokenInvalid
	}

	return &ChangeTokenPayload{
		AccountID: uint(accountID),
		Secret:    secret,
	}, nil
}
