package handlers

import (
	"errors"
	"log"
	"time"

	"medibook-server/internal/mailer"
	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB     *gorm.DB
	Mailer *mailer.Mailer
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, m *mailer.Mailer) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Mailer: m}
}

var errSlotTaken = errors.New("doctor already booked at that time")

// CreateAppointmentRequest represents the request body for booking an appointment.
type CreateAppointmentRequest struct {
	DoctorID        string    `json:"doctorId" binding:"required,uuid"`
	AppointmentDate time.Time `json:"appointmentDate" binding:"required"`
}

// CreateAppointment books a new appointment for the authenticated patient.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Patient ID not found in token")
		return
	}

	var patient models.User
	if err := h.DB.First(&patient, "id = ?", patientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return
	}

	var doctor models.Doctor
	if err := h.DB.First(&doctor, "id = ?", req.DoctorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error verifying doctor: "+err.Error())
		}
		return
	}

	if !req.AppointmentDate.After(time.Now()) {
		utils.BadRequest(c, "Appointment date must be in the future.")
		return
	}

	appointment := models.Appointment{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		ScheduledAt: req.AppointmentDate,
		Status:      models.StatusPending,
	}

	// The duplicate-slot check and the insert run in one transaction with a
	// locking read, so two concurrent bookings for the same (doctor, time)
	// slot cannot both pass the guard.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		guard := tx.Where("doctor_id = ? AND scheduled_at = ? AND status = ?",
			doctor.ID, req.AppointmentDate, models.StatusPending)
		// SQLite has no FOR UPDATE; its single-writer transactions already
		// serialize the guard with the insert.
		if tx.Dialector.Name() == "mysql" {
			guard = guard.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var existing models.Appointment
		err := guard.First(&existing).Error
		if err == nil {
			return errSlotTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&appointment).Error
	})
	if err != nil {
		if errors.Is(err, errSlotTaken) {
			utils.BadRequest(c, "The doctor already has a pending appointment at that time. Please pick another slot.")
		} else {
			utils.InternalServerError(c, "Failed to create appointment: "+err.Error())
		}
		return
	}

	// Best-effort confirmation email; a mail outage never fails the booking.
	if h.Mailer != nil {
		if err := h.Mailer.SendAppointmentConfirmation(&patient, &doctor, &appointment); err != nil {
			log.Printf("failed to send appointment confirmation to %s: %v", patient.Email, err)
		}
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// doctorSummary is the doctor data joined into a patient's appointment list.
type doctorSummary struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// patientSummary is the patient data joined into a doctor's appointment list.
type patientSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PatientAppointmentView is one row of GET /appointments/me.
type PatientAppointmentView struct {
	ID          string                   `json:"id"`
	DoctorID    string                   `json:"doctorId"`
	ScheduledAt time.Time                `json:"scheduledAt"`
	Status      models.AppointmentStatus `json:"status"`
	Doctor      doctorSummary            `json:"doctor"`
}

// DoctorAppointmentView is one row of GET /appointments/doctor/me.
type DoctorAppointmentView struct {
	ID          string                   `json:"id"`
	PatientID   string                   `json:"patientId"`
	ScheduledAt time.Time                `json:"scheduledAt"`
	Status      models.AppointmentStatus `json:"status"`
	Patient     patientSummary           `json:"patient"`
}

// GetPatientAppointments lists the authenticated patient's appointments,
// newest scheduled first.
func (h *AppointmentHandler) GetPatientAppointments(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var appointments []models.Appointment
	if err := h.DB.Preload("Doctor").
		Where("patient_id = ?", patientID).
		Order("scheduled_at desc").
		Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	views := make([]PatientAppointmentView, len(appointments))
	for i, a := range appointments {
		views[i] = PatientAppointmentView{
			ID:          a.ID,
			DoctorID:    a.DoctorID,
			ScheduledAt: a.ScheduledAt,
			Status:      a.Status,
			Doctor: doctorSummary{
				Name:           a.Doctor.Name,
				Specialization: a.Doctor.Specialization,
			},
		}
	}

	utils.Success(c, "Appointments fetched successfully", views)
}

// GetDoctorAppointments lists the authenticated doctor's appointments,
// earliest scheduled first.
func (h *AppointmentHandler) GetDoctorAppointments(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var appointments []models.Appointment
	if err := h.DB.Preload("Patient").
		Where("doctor_id = ?", doctorID).
		Order("scheduled_at asc").
		Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	views := make([]DoctorAppointmentView, len(appointments))
	for i, a := range appointments {
		views[i] = DoctorAppointmentView{
			ID:          a.ID,
			PatientID:   a.PatientID,
			ScheduledAt: a.ScheduledAt,
			Status:      a.Status,
			Patient: patientSummary{
				Name:  a.Patient.Name,
				Email: a.Patient.Email,
			},
		}
	}

	utils.Success(c, "Appointments fetched successfully", views)
}

// UpdateAppointmentStatusRequest represents the request body for a status change.
// CANCELLED here is the doctor/admin path; patient cancellation goes through
// the dedicated cancel endpoint with its own ownership and time-window rules.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof=FINISHED CANCELLED"`
}

// UpdateAppointmentStatus transitions an appointment out of PENDING. Only
// doctors and admins reach this handler (route middleware).
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	appointmentID := c.Param("id")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if appointment.Status.IsTerminal() {
		utils.BadRequest(c, "Appointment status can no longer be changed.")
		return
	}

	// Conditional write: zero affected rows means the status left PENDING
	// between our read and this update.
	res := h.DB.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appointment.ID, models.StatusPending).
		Update("status", req.Status)
	if res.Error != nil {
		utils.InternalServerError(c, "Failed to update appointment status: "+res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		utils.BadRequest(c, "Appointment status can no longer be changed.")
		return
	}

	appointment.Status = req.Status
	utils.Success(c, "Appointment status updated successfully", appointment)
}

// CancelAppointment cancels a PENDING appointment for its owning patient,
// provided the schedule is still more than two hours away.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	appointmentID := c.Param("id")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if appointment.PatientID != patientID {
		utils.Forbidden(c, "You are not allowed to cancel this appointment.")
		return
	}

	if appointment.Status != models.StatusPending {
		utils.BadRequest(c, "Only PENDING appointments can be cancelled.")
		return
	}

	if !appointment.CancellableAt(time.Now()) {
		utils.BadRequest(c, "Appointments can only be cancelled more than 2 hours before the scheduled time.")
		return
	}

	res := h.DB.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appointment.ID, models.StatusPending).
		Update("status", models.StatusCancelled)
	if res.Error != nil {
		utils.InternalServerError(c, "Failed to cancel appointment: "+res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		utils.BadRequest(c, "Only PENDING appointments can be cancelled.")
		return
	}

	appointment.Status = models.StatusCancelled
	utils.Success(c, "Appointment cancelled successfully", appointment)
}
