package model

import (
	"database/sql"
	"strings"
	"time"

	"teleconsult/shared/actor"
	"teleconsult/shared/constant"
	"teleconsult/shared/failure"
	"teleconsult/shared/model"
)

const (
	TableName  = "appointments"
	EntityName = "appointment"

	FieldID               = "id"
	FieldOrgID            = "org_id"
	FieldDepartmentID     = "department_id"
	FieldProviderEmail    = "provider_email"
	FieldProviderName     = "provider_name"
	FieldClientID         = "client_id"
	FieldClientName       = "client_name"
	FieldClientEmail      = "client_email"
	FieldClientPhone      = "client_phone"
	FieldClientMRN        = "client_mrn"
	FieldStartTime        = "start_time"
	FieldEndTime          = "end_time"
	FieldStatus           = "status"
	FieldCallingEnabled   = "calling_enabled"
	FieldReminderSent     = "reminder_sent"
	FieldBackendSessionID = "backend_session_id"
	FieldDocumentURL      = "document_url"
	FieldNotes            = "notes"
	FieldPackageInfo      = "package_info"
	FieldPaymentInfo      = "payment_info"
)

const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

var (
	ErrInvalidWindow = failure.BadRequestFromString("start_time must be before end_time")
	ErrSlotConflict  = failure.Conflict("appointment is already booked in the time frame")
	ErrOutOfScope    = failure.Forbidden("appointment is outside of your scope")
	ErrNotFound      = failure.NotFound(EntityName)
)

type Appointment struct {
	ID               string         `db:"id"`
	OrgID            string         `db:"org_id"`
	DepartmentID     string         `db:"department_id"`
	ProviderEmail    string         `db:"provider_email"`
	ProviderName     string         `db:"provider_name"`
	ClientID         sql.NullString `db:"client_id"`
	ClientName       string         `db:"client_name"`
	ClientEmail      string         `db:"client_email"`
	ClientPhone      string         `db:"client_phone"`
	ClientMRN        string         `db:"client_mrn"`
	StartTime        time.Time      `db:"start_time"`
	EndTime          time.Time      `db:"end_time"`
	Status           string         `db:"status"`
	CallingEnabled   bool           `db:"calling_enabled"`
	ReminderSent     bool           `db:"reminder_sent"`
	BackendSessionID sql.NullString `db:"backend_session_id"`
	DocumentURL      string         `db:"document_url"`
	Notes            string         `db:"notes"`
	PackageInfo      model.Extras   `db:"package_info"`
	PaymentInfo      model.Extras   `db:"payment_info"`
	model.Metadata
}

func (a Appointment) Window() Window {
	return Window{Start: a.StartTime, End: a.EndTime}
}

func (a Appointment) Scope() Scope {
	return Scope{OrgID: a.OrgID, DepartmentID: a.DepartmentID, ProviderEmail: a.ProviderEmail}
}

// Scope narrows conflict and authorization checks. Empty fields are not applied.
type Scope struct {
	OrgID         string
	DepartmentID  string
	ProviderEmail string
}

// Permits reports whether caller manages appointments in the scope.
func (s Scope) Permits(caller actor.Actor) bool {
	switch caller.Role {
	case constant.RoleSuperAdmin:
		return true
	case constant.RoleOrgAdmin:
		return caller.OrgID != constant.Empty && caller.OrgID == s.OrgID
	case constant.RoleDepartmentAdmin:
		return caller.DepartmentID != constant.Empty && caller.DepartmentID == s.DepartmentID
	case constant.RoleProvider:
		return s.ProviderEmail != constant.Empty && strings.EqualFold(caller.Identity, s.ProviderEmail)
	}

	return false
}

// Narrowest is the partition a booking competes in: the provider when known, otherwise the department.
func (s Scope) Narrowest() Scope {
	if s.ProviderEmail != "" {
		return Scope{ProviderEmail: s.ProviderEmail}
	}

	return Scope{OrgID: s.OrgID, DepartmentID: s.DepartmentID}
}

// LockKey picks the narrowest partition that serialises bookings for the scope.
func (s Scope) LockKey() string {
	switch {
	case s.ProviderEmail != "":
		return "appointment:provider:" + s.ProviderEmail
	case s.DepartmentID != "":
		return "appointment:department:" + s.DepartmentID
	default:
		return "appointment:org:" + s.OrgID
	}
}
