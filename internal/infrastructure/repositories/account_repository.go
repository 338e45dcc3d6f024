package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/you/authsvc/domain"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements domain.AccountRepository using GORM
type AccountRepositoryImpl struct {
	db *gorm.DB
}

// DBAccount represents the database model for Account (with GORM tags)
type DBAccount struct {
	ID                  uint   `gorm:"primaryKey"`
	Username            string `gorm:"uniqueIndex;size:255"`
	PasswordHash        string `gorm:"column:password"`
	Role                string `gorm:"index;size:64"`
	FailedLoginAttempts uint
	LockedUntil         *time.Time
	MustChangePassword  bool
	TOTPSecret          string `gorm:"column:totp_secret;size:128"`
	TOTPEnabled         bool   `gorm:"column:totp_enabled"`
	TOTPConfirmed       bool   `gorm:"column:totp_confirmed"`
	BackupCodeHashes    string `gorm:"type:text"`
	LastLoginIP         string `gorm:"size:64"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBAccount) TableName() string {
	return "accounts"
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &AccountRepositoryImpl{db: db}
}

// Create implements domain.AccountRepository
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *domain.Account) error {
	dbAccount := r.domainToDB(account)
	if err := r.db.WithContext(ctx).Create(dbAccount).Error; err != nil {
		return err
	}
	account.ID = dbAccount.ID
	return nil
}

// FindByUsername implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&dbAccount).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// FindByID implements domain.AccountRepository
func (r *AccountRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	var dbAccount DBAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbAccount).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbAccount), nil
}

// Update implements domain.AccountRepository
func (r *AccountRepositoryImpl) Update(ctx context.Context, account *domain.Account) error {
	dbAccount := r.domainToDB(account)
	return r.db.WithContext(ctx).Save(dbAccount).Error
}

// RecordFailure persists the failure counter and lock expiry together,
// as a single update.
func (r *AccountRepositoryImpl) RecordFailure(ctx context.Context, accountID uint, attempts uint, lockedUntil *time.Time) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", accountID).Updates(map[string]interface{}{
		"failed_login_attempts": attempts,
		"locked_until":          lockedUntil,
	}).Error
}

// RecordSuccess clears the failure counter and lock expiry and stores
// the login IP, as a single update.
func (r *AccountRepositoryImpl) RecordSuccess(ctx context.Context, accountID uint, lastLoginIP string) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", accountID).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_ip":         lastLoginIP,
	}).Error
}

// UpdatePassword implements domain.AccountRepository
func (r *AccountRepositoryImpl) UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", accountID).Updates(map[string]interface{}{
		"password":             passwordHash,
		"must_change_password": false,
	}).Error
}

// UpdateTOTP persists the two-factor fields of the account.
func (r *AccountRepositoryImpl) UpdateTOTP(ctx context.Context, account *domain.Account) error {
	return r.db.WithContext(ctx).Model(&DBAccount{}).Where("id = ?", account.ID).Updates(map[string]interface{}{
		"totp_secret":        account.TOTPSecret,
		"totp_enabled":       account.TOTPEnabled,
		"totp_confirmed":     account.TOTPConfirmed,
		"backup_code_hashes": marshalBackupCodes(account.BackupCodeHashes),
	}).Error
}

// domainToDB converts a domain account to a database account
func (r *AccountRepositoryImpl) domainToDB(account *domain.Account) *DBAccount {
	return &DBAccount{
		ID:                  account.ID,
		Username:            account.Username,
		PasswordHash:        account.PasswordHash,
		Role:                account.Role,
		FailedLoginAttempts: account.FailedLoginAttempts,
		LockedUntil:         account.LockedUntil,
		MustChangePassword:  account.MustChangePassword,
		TOTPSecret:          account.TOTPSecret,
		TOTPEnabled:         account.TOTPEnabled,
		TOTPConfirmed:       account.TOTPConfirmed,
		BackupCodeHashes:    marshalBackupCodes(account.BackupCodeHashes),
		LastLoginIP:         account.LastLoginIP,
	}
}

// dbToDomain converts a database account to a domain account
func (r *AccountRepositoryImpl) dbToDomain(dbAccount *DBAccount) *domain.Account {
	return &domain.Account{
		ID:                  dbAccount.ID,
		Username:            dbAccount.Username,
		PasswordHash:        dbAccount.PasswordHash,
		Role:                dbAccount.Role,
		FailedLoginAttempts: dbAccount.FailedLoginAttempts,
		LockedUntil:         dbAccount.LockedUntil,
		MustChangePassword:  dbAccount.MustChangePassword,
		TOTPSecret:          dbAccount.TOTPSecret,
		TOTPEnabled:         dbAccount.TOTPEnabled,
		TOTPConfirmed:       dbAccount.TOTPConfirmed,
		BackupCodeHashes:    unmarshalBackupCodes(dbAccount.BackupCodeHashes),
		LastLoginIP:         dbAccount.LastLoginIP,
		CreatedAt:           dbAccount.CreatedAt,
		UpdatedAt:           dbAccount.UpdatedAt,
	}
}

func marshalBackupCodes(hashes []string) string {
	if len(hashes) == 0 {
		return "[]"
	}
	data, err := json.Marshal(hashes)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalBackupCodes(data string) []string {
	if data == "" {
		return nil
	}
	var hashes []string
	if err := json.Unmarshal([]byte(data), &hashes); err != nil {
		return nil
	}
	return hashes
}
