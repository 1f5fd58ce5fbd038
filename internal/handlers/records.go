package handlers

import (
	"errors"
	"fmt"

	"medibook-server/internal/middleware"
	"medibook-server/internal/models"
	"medibook-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MedicalRecordHandler handles medical record related requests.
type MedicalRecordHandler struct {
	DB        *gorm.DB
	UploadDir string
}

// NewMedicalRecordHandler creates a new MedicalRecordHandler.
func NewMedicalRecordHandler(db *gorm.DB, uploadDir string) *MedicalRecordHandler {
	return &MedicalRecordHandler{DB: db, UploadDir: uploadDir}
}

// recordAccessAllowed applies the record visibility rule: the owning
// patient, the appointment's doctor, or an admin. The same rule covers
// fetch, fetch-by-appointment and download.
func recordAccessAllowed(userID string, role models.Role, patientID, doctorID string) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleDoctor:
		return userID == doctorID
	default:
		return userID == patientID
	}
}

// UploadRecord stores a medical record file for one of the patient's own
// appointments. The file lands on disk first (like the upload middleware it
// mirrors), so every rejection path must delete it again.
func (h *MedicalRecordHandler) UploadRecord(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "A medical record file is required.")
		return
	}

	fileName, filePath, err := utils.SaveUpload(fileHeader, h.UploadDir)
	if err != nil {
		if errors.Is(err, utils.ErrFileTooLarge) || errors.Is(err, utils.ErrUnsupportedFileType) {
			utils.BadRequest(c, err.Error())
		} else {
			utils.InternalServerError(c, "Failed to store uploaded file: "+err.Error())
		}
		return
	}

	appointmentID := c.PostForm("appointmentId")
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.RemoveUpload(filePath)
		utils.Forbidden(c, "Invalid appointment ID.")
		return
	}

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		utils.RemoveUpload(filePath)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if appointment.PatientID != patientID {
		utils.RemoveUpload(filePath)
		utils.Forbidden(c, "You cannot upload a medical record for this appointment.")
		return
	}

	record := models.MedicalRecord{
		AppointmentID: appointment.ID,
		PatientID:     patientID,
		FileName:      fileName,
		FilePath:      filePath,
		MimeType:      fileHeader.Header.Get("Content-Type"),
	}
	if notes := c.PostForm("notes"); notes != "" {
		record.NoteContent = &notes
	}

	if err := h.DB.Create(&record).Error; err != nil {
		utils.RemoveUpload(filePath)
		utils.InternalServerError(c, "Failed to create medical record: "+err.Error())
		return
	}

	utils.Created(c, "Medical record uploaded successfully", record)
}

// GetRecordByID fetches a single medical record's metadata.
func (h *MedicalRecordHandler) GetRecordByID(c *gin.Context) {
	recordID := c.Param("id")
	if _, err := uuid.Parse(recordID); err != nil {
		utils.BadRequest(c, "Invalid Medical Record ID format")
		return
	}

	record, ok := h.loadAuthorizedRecord(c, recordID)
	if !ok {
		return
	}

	utils.Success(c, "Medical record fetched successfully", record)
}

// GetRecordSubresource dispatches the two-segment record routes. Gin's
// router cannot mount a static /records/appointment subtree next to the
// /records/:id wildcard, so both shapes land here.
func (h *MedicalRecordHandler) GetRecordSubresource(c *gin.Context) {
	if c.Param("id") == "appointment" {
		h.getRecordByAppointment(c, c.Param("sub"))
		return
	}
	if c.Param("sub") == "download" {
		h.downloadRecord(c, c.Param("id"))
		return
	}
	utils.NotFound(c, "Resource not found")
}

// getRecordByAppointment fetches the record attached to an appointment. An
// authorized caller with no record yet gets a null payload, not an error.
func (h *MedicalRecordHandler) getRecordByAppointment(c *gin.Context, appointmentID string) {
	if _, err := uuid.Parse(appointmentID); err != nil {
		utils.BadRequest(c, "Invalid Appointment ID format")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !recordAccessAllowed(userID, userRole, appointment.PatientID, appointment.DoctorID) {
		utils.Forbidden(c, "You are not authorized to view this medical record")
		return
	}

	var record models.MedicalRecord
	if err := h.DB.Where("appointment_id = ?", appointmentID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Success(c, "No medical record for this appointment yet", nil)
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Medical record fetched successfully", record)
}

// downloadRecord streams the stored file to an authorized caller.
func (h *MedicalRecordHandler) downloadRecord(c *gin.Context, recordID string) {
	if _, err := uuid.Parse(recordID); err != nil {
		utils.BadRequest(c, "Invalid Medical Record ID format")
		return
	}

	record, ok := h.loadAuthorizedRecord(c, recordID)
	if !ok {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.FileName))
	c.Header("Content-Type", record.MimeType)
	c.File(record.FilePath)
}

// loadAuthorizedRecord fetches a record with its appointment and enforces
// the visibility rule, writing the error response itself on failure.
func (h *MedicalRecordHandler) loadAuthorizedRecord(c *gin.Context, recordID string) (*models.MedicalRecord, bool) {
	var record models.MedicalRecord
	if err := h.DB.Preload("Appointment").First(&record, "id = ?", recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if !recordAccessAllowed(userID, userRole, record.PatientID, record.Appointment.DoctorID) {
		utils.Forbidden(c, "You are not authorized to view this medical record")
		return nil, false
	}

	return &record, true
}
