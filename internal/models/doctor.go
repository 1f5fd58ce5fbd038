package models

// Doctor represents a doctor account.
type Doctor struct {
	BaseModel
	Email          string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password       string `gorm:"size:255;not null" json:"-"`
	Name           string `gorm:"size:100" json:"name"`
	Specialization string `gorm:"size:100" json:"specialization"`
	Role           Role   `gorm:"size:20;default:'DOCTOR'" json:"role"`

	// Single-slot refresh token digest; nil means no active session.
	RefreshTokenHash *string `gorm:"size:64" json:"-"`

	// Relations (not always preloaded)
	Appointments []Appointment `gorm:"foreignKey:DoctorID" json:"-"`
}

// SetPassword hashes a password and sets it on the doctor
func (d *Doctor) SetPassword(password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	d.Password = hashed
	return nil
}

// CheckPassword compares a password with the doctor's hashed password
func (d *Doctor) CheckPassword(password string) bool {
	return VerifyPassword(d.Password, password)
}

// Sanitize creates an AccountSanitized struct from a Doctor model, excluding sensitive data.
func (d *Doctor) Sanitize() AccountSanitized {
	return AccountSanitized{
		ID:             d.ID,
		Email:          d.Email,
		Name:           d.Name,
		Role:           d.Role,
		Specialization: d.Specialization,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
