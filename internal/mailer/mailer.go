package mailer

import (
	"fmt"

	"medibook-server/internal/config"
	"medibook-server/internal/models"

	"github.com/go-gomail/gomail"
)

// Mailer sends transactional email over SMTP. A nil *Mailer is valid and
// means delivery is disabled; callers must check before sending.
type Mailer struct {
	cfg config.SMTPConfig
}

// New returns a Mailer, or nil when SMTP is not configured.
func New(cfg config.SMTPConfig) *Mailer {
	if !cfg.Enabled() {
		return nil
	}
	return &Mailer{cfg: cfg}
}

// SendAppointmentConfirmation emails the patient after a booking. Failures
// are returned for logging only; booking never rolls back on mail errors.
func (m *Mailer) SendAppointmentConfirmation(patient *models.User, doctor *models.Doctor, appointment *models.Appointment) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", patient.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Appointment confirmation with Dr. %s", doctor.Name))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nYour appointment with Dr. %s (%s) is booked for %s.\n\nAppointment ID: %s\n",
		patient.Name,
		doctor.Name,
		doctor.Specialization,
		appointment.ScheduledAt.Format("Monday, 2 January 2006 at 15:04"),
		appointment.ID,
	))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return dialer.DialAndSend(msg)
}
