package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusFinished.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestAppointmentCancellableAt(t *testing.T) {
	now := time.Now()

	appt := Appointment{Status: StatusPending, ScheduledAt: now.Add(3 * time.Hour)}
	assert.True(t, appt.CancellableAt(now))

	// Exactly two hours before is too late.
	appt.ScheduledAt = now.Add(CancelLeadTime)
	assert.False(t, appt.CancellableAt(now))

	appt.ScheduledAt = now.Add(CancelLeadTime + time.Second)
	assert.True(t, appt.CancellableAt(now))

	appt.ScheduledAt = now.Add(30 * time.Minute)
	assert.False(t, appt.CancellableAt(now))

	// Terminal appointments are never cancellable regardless of time.
	appt.Status = StatusFinished
	appt.ScheduledAt = now.Add(48 * time.Hour)
	assert.False(t, appt.CancellableAt(now))
}
