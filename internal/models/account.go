package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Account is the service-boundary view over the two account tables. Patients
// and admins are stored in users, doctors in doctors; handlers work against
// this union so lookup and update logic is not duplicated per kind.
type Account struct {
	ID               string
	Email            string
	Name             string
	Role             Role
	Specialization   string // doctors only
	PasswordHash     string
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AccountSanitized represents the account data that is safe to send in API responses.
type AccountSanitized struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	Specialization string    `json:"specialization,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Sanitize creates an AccountSanitized struct from an Account, excluding sensitive data.
func (a *Account) Sanitize() AccountSanitized {
	return AccountSanitized{
		ID:             a.ID,
		Email:          a.Email,
		Name:           a.Name,
		Role:           a.Role,
		Specialization: a.Specialization,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// CheckPassword compares a password with the account's hashed password.
func (a *Account) CheckPassword(password string) bool {
	return VerifyPassword(a.PasswordHash, password)
}

func accountFromUser(u *User) *Account {
	return &Account{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             u.Role,
		PasswordHash:     u.Password,
		RefreshTokenHash: u.RefreshTokenHash,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func accountFromDoctor(d *Doctor) *Account {
	return &Account{
		ID:               d.ID,
		Email:            d.Email,
		Name:             d.Name,
		Role:             d.Role,
		Specialization:   d.Specialization,
		PasswordHash:     d.Password,
		RefreshTokenHash: d.RefreshTokenHash,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// FindAccountByEmail looks an email up in the users table first, then the
// doctors table. Email uniqueness holds across the union of both kinds, so
// registration of either kind must go through this lookup.
func FindAccountByEmail(db *gorm.DB, email string) (*Account, error) {
	var user User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return accountFromUser(&user), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var doctor Doctor
	if err := db.Where("email = ?", email).First(&doctor).Error; err != nil {
		return nil, err
	}
	return accountFromDoctor(&doctor), nil
}

// FindAccountByID fetches an account from the table selected by role.
func FindAccountByID(db *gorm.DB, id string, role Role) (*Account, error) {
	if role == RoleDoctor {
		var doctor Doctor
		if err := db.First(&doctor, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return accountFromDoctor(&doctor), nil
	}

	var user User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return accountFromUser(&user), nil
}

// FindAccountByClaims re-resolves the full (id, email, role) triple against
// the store. A deleted or role-changed account fails this check even while
// its access token is still unexpired.
func FindAccountByClaims(db *gorm.DB, id, email string, role Role) (*Account, error) {
	if role == RoleDoctor {
		var doctor Doctor
		if err := db.Where("id = ? AND email = ? AND role = ?", id, email, role).First(&doctor).Error; err != nil {
			return nil, err
		}
		return accountFromDoctor(&doctor), nil
	}

	var user User
	if err := db.Where("id = ? AND email = ? AND role = ?", id, email, role).First(&user).Error; err != nil {
		return nil, err
	}
	return accountFromUser(&user), nil
}

// SetRefreshTokenHash stores a refresh token digest in the account's single
// slot. Passing nil clears it, revoking every outstanding refresh token for
// the account at once.
func SetRefreshTokenHash(db *gorm.DB, id string, role Role, hash *string) error {
	if role == RoleDoctor {
		return db.Model(&Doctor{}).Where("id = ?", id).Update("refresh_token_hash", hash).Error
	}
	return db.Model(&User{}).Where("id = ?", id).Update("refresh_token_hash", hash).Error
}

// UpdateAccountFields applies a partial update to the table selected by role.
func UpdateAccountFields(db *gorm.DB, id string, role Role, fields map[string]interface{}) error {
	if role == RoleDoctor {
		return db.Model(&Doctor{}).Where("id = ?", id).Updates(fields).Error
	}
	return db.Model(&User{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteAccount removes the account row from the table selected by role.
func DeleteAccount(db *gorm.DB, id string, role Role) error {
	if role == RoleDoctor {
		return db.Delete(&Doctor{}, "id = ?", id).Error
	}
	return db.Delete(&User{}, "id = ?", id).Error
}
