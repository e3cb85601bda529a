package model

import (
	"database/sql"
	"slices"
	"strings"
	"time"

	"github.com/lib/pq"

	"teleconsult/shared/failure"
	"teleconsult/shared/model"
)

const (
	TicketTableName  = "session_tickets"
	TicketEntityName = "session ticket"

	FieldID               = "id"
	FieldAppointmentID    = "appointment_id"
	FieldScheduledAt      = "scheduled_at"
	FieldStatus           = "status"
	FieldInvitees         = "invitees"
	FieldBackendSessionID = "backend_session_id"
)

const (
	ParticipantTableName  = "session_participants"
	ParticipantEntityName = "session participant"

	FieldTicketID  = "ticket_id"
	FieldSessionID = "session_id"
	FieldIdentity  = "identity"
)

const (
	TokenTableName  = "join_tokens"
	TokenEntityName = "join token"

	FieldSubject = "subject"
	FieldToken   = "token"
)

const (
	StatusScheduled = "scheduled"
	StatusStarted   = "started"
)

const (
	RoleProvider = "provider"
	RoleClient   = "client"
)

// Admission denial reasons. Denials are results, not errors.
const (
	ReasonNotInvited = "not invited"
	ReasonTooEarly   = "too early"
)

var (
	ErrNotScheduled     = failure.NotFound("session is not scheduled for this appointment")
	ErrInvalidToken     = failure.Unauthorized("invalid meeting token")
	ErrAlreadyScheduled = failure.Conflict("session is already scheduled for this appointment")
)

// Ticket gates admission to the backend session of one appointment.
type Ticket struct {
	ID               string         `db:"id"`
	AppointmentID    string         `db:"appointment_id"`
	ScheduledAt      time.Time      `db:"scheduled_at"`
	Status           string         `db:"status"`
	Invitees         pq.StringArray `db:"invitees"`
	BackendSessionID sql.NullString `db:"backend_session_id"`
	model.Metadata
}

func (t Ticket) IsInvited(identity string) bool {
	return slices.Contains(t.Invitees, NormalizeIdentity(identity))
}

// AdmissionOpensAt is the first instant at which invitees may join.
func (t Ticket) AdmissionOpensAt(lead time.Duration) time.Time {
	return t.ScheduledAt.Add(-lead)
}

func (t Ticket) Started() bool {
	return t.Status == StatusStarted && t.BackendSessionID.Valid
}

type Participant struct {
	ID             string    `db:"id"`
	TicketID       string    `db:"ticket_id"`
	SessionID      string    `db:"session_id"`
	Identity       string    `db:"identity"`
	ParticipantID  string    `db:"participant_id"`
	ExternalUserID string    `db:"external_user_id"`
	JoinToken      string    `db:"join_token"`
	CreatedAt      time.Time `db:"created_at"`
}

type JoinToken struct {
	ID        string    `db:"id"`
	TicketID  string    `db:"ticket_id"`
	Role      string    `db:"role"`
	Subject   string    `db:"subject"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
}

// NormalizeIdentity makes identity comparisons case-insensitive.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
