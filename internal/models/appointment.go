package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusFinished  AppointmentStatus = "FINISHED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// CancelLeadTime is the minimum gap between now and the scheduled time for a
// patient-initiated cancellation. A gap of exactly two hours is too late.
const CancelLeadTime = 2 * time.Hour

// Appointment represents a scheduled medical appointment. Appointments are
// never deleted, only status-transitioned.
type Appointment struct {
	BaseModel
	PatientID   string            `gorm:"size:36;index" json:"patientId"`
	DoctorID    string            `gorm:"size:36;index" json:"doctorId"`
	ScheduledAt time.Time         `json:"scheduledAt"`
	Status      AppointmentStatus `gorm:"size:20;default:'PENDING'" json:"status"`

	// Relations
	Patient User   `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  Doctor `gorm:"foreignKey:DoctorID" json:"-"`
}

// CancellableAt reports whether the appointment may still be cancelled by
// its patient at the given instant.
func (a *Appointment) CancellableAt(now time.Time) bool {
	return a.Status == StatusPending && a.ScheduledAt.Sub(now) > CancelLeadTime
}
