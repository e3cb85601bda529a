package dto

import (
	"teleconsult/internal/domains/appointment/model"
	"teleconsult/shared/constant"
	"teleconsult/shared/timezone"
)

// Candidate is an appointment entering its reminder window.
type Candidate struct {
	AppointmentID string `json:"appointment_id"`
	Recipient     string `json:"recipient"`
	StartTime     string `json:"start_time"`

	Appointment model.Appointment `json:"-"`
}

func (c *Candidate) FromModel(appointment model.Appointment) {
	c.AppointmentID = appointment.ID
	c.Recipient = appointment.ClientEmail
	c.StartTime = timezone.Format(appointment.StartTime, constant.DateFormat)
	c.Appointment = appointment
}

// SweepResult summarises one scan-and-send pass.
type SweepResult struct {
	Scanned int      `json:"scanned"`
	Sent    int      `json:"sent"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed"`
}
