package repositories

import (
	"context"
	"time"

	"github.com/you/authsvc/domain"
	"gorm.io/gorm"
)

// ChangeTokenRepositoryImpl implements domain.ChangeTokenRepository
// using GORM
type ChangeTokenRepositoryImpl struct {
	db *gorm.DB
}

// DBPasswordChangeToken represents the database model for
// PasswordChangeToken
type DBPasswordChangeToken struct {
	ID        uint   `gorm:"primaryKey"`
	AccountID uint   `gorm:"index"`
	Secret    string `gorm:"uniqueIndex;size:64"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
	Used      bool
}

// TableName returns the table name for GORM
func (DBPasswordChangeToken) TableName() string {
	return "password_change_tokens"
}

// NewChangeTokenRepository creates a new change token repository
func NewChangeTokenRepository(db *gorm.DB) domain.ChangeTokenRepository {
	return &ChangeTokenRepositoryImpl{db: db}
}

// Create implements domain.ChangeTokenRepository
func (r *ChangeTokenRepositoryImpl) Create(ctx context.Context, token *domain.PasswordChangeToken) error {
	dbToken := &DBPasswordChangeToken{
		AccountID: token.AccountID,
		Secret:    token.Secret,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
		Used:      token.Used,
	}
	if err := r.db.WithContext(ctx).Create(dbToken).Error; err != nil {
		return err
	}
	token.ID = dbToken.ID
	return nil
}

// FindActive implements domain.ChangeTokenRepository. Unknown, used and
// expired rows all collapse into ErrChangeTokenInvalid.
func (r *ChangeTokenRepositoryImpl) FindActive(ctx context.Context, accountID uint, secret string) (*domain.PasswordChangeToken, error) {
	var dbToken DBPasswordChangeToken
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND secret = ? AND used = ? AND expires_at > ?", accountID, secret, false, time.Now()).
		First(&dbToken).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrChangeTokenInvalid
		}
		return nil, err
	}
	return &domain.PasswordChangeToken{
		ID:        dbToken.ID,
		AccountID: dbToken.AccountID,
		Secret:    dbToken.Secret,
		CreatedAt: dbToken.CreatedAt,
		ExpiresAt: dbToken.ExpiresAt,
		Used:      dbToken.Used,
	}, nil
}

// Consume implements domain.ChangeTokenRepository. The single
// conditional UPDATE is the compare-and-swap that guarantees the token
// is granted to at most one caller: two concurrent consumers race on
// used = false and only one row update can win.
func (r *ChangeTokenRepositoryImpl) Consume(ctx context.Context, accountID uint, secret string) error {
	result := r.db.WithContext(ctx).Model(&DBPasswordChangeToken{}).
		Where("account_id = ? AND secret = ? AND used = ? AND expires_at > ?", accountID, secret, false, time.Now()).
		Update("used", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrChangeTokenInvalid
	}
	return nil
}

// InvalidateAll marks every unused token for the account as used, so at
// most one unused token exists per account at a time.
func (r *ChangeTokenRepositoryImpl) InvalidateAll(ctx context.Context, accountID uint) error {
	return r.db.WithContext(ctx).Model(&DBPasswordChangeToken{}).
		Where("account_id = ? AND used = ?", accountID, false).
		Update("used", true).Error
}

// DeleteExpired physically purges rows that are dead either way: past
// expiry or already consumed.
func (r *ChangeTokenRepositoryImpl) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR used = ?", time.Now(), true).
		Delete(&DBPasswordChangeToken{})
	return result.RowsAffected, result.Error
}
