package models

// MedicalRecord binds an uploaded file's metadata to an appointment. The raw
// storage path never leaves the server except through the download endpoint.
type MedicalRecord struct {
	BaseModel
	AppointmentID string  `gorm:"size:36;index" json:"appointmentId"`
	PatientID     string  `gorm:"size:36;index" json:"patientId"`
	FileName      string  `gorm:"size:255;not null" json:"fileName"`
	FilePath      string  `gorm:"size:512;not null" json:"-"`
	MimeType      string  `gorm:"size:100" json:"mimeType"`
	NoteContent   *string `gorm:"type:text" json:"noteContent,omitempty"`

	// Relations
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
	Patient     User        `gorm:"foreignKey:PatientID" json:"-"`
}
