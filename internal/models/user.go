package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// User represents a patient or admin account. Doctor accounts live in their
// own table; email uniqueness is enforced across both (see FindAccountByEmail).
type User struct {
	BaseModel
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	Name     string `gorm:"size:100" json:"name"`
	Role     Role   `gorm:"size:20;default:'PATIENT'" json:"role"`

	// Single-slot refresh token digest; nil means no active session.
	RefreshTokenHash *string `gorm:"size:64" json:"-"`

	// Relations (not always preloaded)
	Appointments   []Appointment   `gorm:"foreignKey:PatientID" json:"-"`
	MedicalRecords []MedicalRecord `gorm:"foreignKey:PatientID" json:"-"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	return VerifyPassword(u.Password, password)
}

// Sanitize creates an AccountSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() AccountSanitized {
	return AccountSanitized{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares a plaintext password with a bcrypt hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
