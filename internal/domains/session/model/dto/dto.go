package dto

import (
	"time"

	"teleconsult/infras/chime"
	"teleconsult/internal/domains/session/model"
	"teleconsult/shared/constant"
	"teleconsult/shared/timezone"
)

type ScheduleRequest struct {
	AppointmentID string
	ScheduledAt   time.Time
	Provider      string
	Client        string
	User          string
}

type ScheduleResult struct {
	Ticket model.Ticket
	// Tokens maps each invitee role to its join token.
	Tokens map[string]model.JoinToken
}

type JoinRequest struct {
	Token         string `json:"token"          validate:"required"`
	AppointmentID string `json:"appointment_id" validate:"omitempty,uuid"`
}

type ParticipantResponse struct {
	ID             string `json:"id"`
	Identity       string `json:"identity"`
	ExternalUserID string `json:"external_user_id"`
	JoinToken      string `json:"join_token"`
}

func (r *ParticipantResponse) FromModel(model model.Participant) {
	r.ID = model.ParticipantID
	r.Identity = model.Identity
	r.ExternalUserID = model.ExternalUserID
	r.JoinToken = model.JoinToken
}

type AdmissionResult struct {
	Granted       bool                 `json:"granted"`
	Reason        string               `json:"reason,omitempty"`
	AppointmentID string               `json:"appointment_id"`
	OpensAt       string               `json:"opens_at,omitempty"`
	Session       *chime.Session       `json:"session,omitempty"`
	Participant   *ParticipantResponse `json:"participant,omitempty"`
}

func Denied(appointmentID, reason string) AdmissionResult {
	return AdmissionResult{AppointmentID: appointmentID, Reason: reason}
}

func Granted(appointmentID string, session chime.Session, participant model.Participant) AdmissionResult {
	res := AdmissionResult{Granted: true, AppointmentID: appointmentID, Session: &session, Participant: &ParticipantResponse{}}
	res.Participant.FromModel(participant)

	return res
}

type TicketResponse struct {
	ID               string   `json:"id"`
	AppointmentID    string   `json:"appointment_id"`
	ScheduledAt      string   `json:"scheduled_at"`
	Status           string   `json:"status"`
	Invitees         []string `json:"invitees"`
	BackendSessionID string   `json:"backend_session_id,omitempty"`
}

func (r *TicketResponse) FromModel(model model.Ticket) {
	r.ID = model.ID
	r.AppointmentID = model.AppointmentID
	r.ScheduledAt = timezone.Format(model.ScheduledAt, constant.DateFormat)
	r.Status = model.Status
	r.Invitees = model.Invitees
	r.BackendSessionID = model.BackendSessionID.String
}
