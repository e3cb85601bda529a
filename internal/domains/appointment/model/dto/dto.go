package dto

import (
	"database/sql"
	"io"

	"github.com/google/uuid"

	"teleconsult/internal/domains/appointment/model"
	"teleconsult/shared"
	"teleconsult/shared/constant"
	gDto "teleconsult/shared/dto"
	gModel "teleconsult/shared/model"
	"teleconsult/shared/timezone"
)

type CreateAppointmentRequest struct {
	OrgID          string        `json:"org_id"          validate:"omitempty,max=64"`
	DepartmentID   string        `json:"department_id"   validate:"omitempty,max=64"`
	ProviderEmail  string        `json:"provider_email"  validate:"omitempty,email,max=100"`
	ProviderName   string        `json:"provider_name"   validate:"omitempty,max=100"`
	ClientName     string        `json:"client_name"     validate:"required,max=100"`
	ClientEmail    string        `json:"client_email"    validate:"required,email,max=100"`
	ClientPhone    string        `json:"client_phone"    validate:"omitempty,max=20"`
	StartTime      string        `json:"start_time"      validate:"required,timestamp"`
	EndTime        string        `json:"end_time"        validate:"required,timestamp"`
	CallingEnabled bool          `json:"calling_enabled"`
	Notes          string        `json:"notes"           validate:"omitempty,max=1000"`
	PackageInfo    gModel.Extras `json:"package_info"`
	PaymentInfo    gModel.Extras `json:"payment_info"`
}

func (c *CreateAppointmentRequest) Window() (model.Window, error) {
	return parseWindow(c.StartTime, c.EndTime)
}

func (c *CreateAppointmentRequest) ToModel(user string) (model.Appointment, error) {
	window, err := c.Window()
	if err != nil {
		return model.Appointment{}, err
	}

	now := timezone.Now()

	return model.Appointment{
		ID:             uuid.NewString(),
		OrgID:          c.OrgID,
		DepartmentID:   c.DepartmentID,
		ProviderEmail:  c.ProviderEmail,
		ProviderName:   c.ProviderName,
		ClientName:     c.ClientName,
		ClientEmail:    c.ClientEmail,
		ClientPhone:    c.ClientPhone,
		StartTime:      window.Start,
		EndTime:        window.End,
		Status:         model.StatusBooked,
		CallingEnabled: c.CallingEnabled,
		Notes:          c.Notes,
		PackageInfo:    c.PackageInfo,
		PaymentInfo:    c.PaymentInfo,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

type UpdateAppointmentRequest struct {
	ProviderName   string `db:"provider_name"  json:"provider_name"   validate:"omitempty,max=100"`
	ClientName     string `db:"client_name"    json:"client_name"     validate:"omitempty,max=100"`
	ClientPhone    string `db:"client_phone"   json:"client_phone"    validate:"omitempty,max=20"`
	StartTime      string `json:"start_time"   validate:"omitempty,timestamp"`
	EndTime        string `json:"end_time"     validate:"omitempty,timestamp"`
	Status         string `db:"status"         json:"status"          validate:"omitempty,oneof=booked cancelled"`
	Notes          string `db:"notes"          json:"notes"           validate:"omitempty,max=1000"`
	CallingEnabled *bool  `json:"calling_enabled"`
}

func (u *UpdateAppointmentRequest) IsEmpty() bool {
	return *u == (UpdateAppointmentRequest{})
}

// Window merges the requested bounds onto current. changed is false when neither bound moves.
func (u *UpdateAppointmentRequest) Window(current model.Window) (window model.Window, changed bool, err error) {
	window = current

	if u.StartTime != "" {
		if window.Start, err = timezone.Parse(constant.DateFormat, u.StartTime); err != nil {
			return window, false, err
		}
	}

	if u.EndTime != "" {
		if window.End, err = timezone.Parse(constant.DateFormat, u.EndTime); err != nil {
			return window, false, err
		}
	}

	return window, !window.Equal(current), nil
}

type AvailabilityRequest struct {
	StartTime     string `json:"start"      validate:"required,timestamp"`
	EndTime       string `json:"end"        validate:"required,timestamp"`
	ProviderEmail string `json:"provider"   validate:"omitempty,email"`
	DepartmentID  string `json:"department" validate:"omitempty"`
	ExcludeID     string `json:"exclude"    validate:"omitempty,uuid"`
}

func (a *AvailabilityRequest) Window() (model.Window, error) {
	return parseWindow(a.StartTime, a.EndTime)
}

type AvailabilityResponse struct {
	Available bool                  `json:"available"`
	Conflicts []AppointmentResponse `json:"conflicts"`
}

type ListFilter struct {
	From           string
	To             string
	ProviderEmail  string
	DepartmentID   string
	Status         string
	CallingEnabled *bool
}

// Range returns the query range when both bounds are present.
func (l ListFilter) Range() (model.Window, bool, error) {
	if l.From == "" || l.To == "" {
		return model.Window{}, false, nil
	}

	window, err := parseWindow(l.From, l.To)
	if err != nil {
		return window, false, err
	}

	return window, true, nil
}

type AppointmentResponse struct {
	ID               string        `json:"id"`
	OrgID            string        `json:"org_id"`
	DepartmentID     string        `json:"department_id"`
	ProviderEmail    string        `json:"provider_email"`
	ProviderName     string        `json:"provider_name"`
	ClientID         string        `json:"client_id"`
	ClientName       string        `json:"client_name"`
	ClientEmail      string        `json:"client_email"`
	ClientPhone      string        `json:"client_phone"`
	ClientMRN        string        `json:"client_mrn"`
	StartTime        string        `json:"start_time"`
	EndTime          string        `json:"end_time"`
	Status           string        `json:"status"`
	CallingEnabled   bool          `json:"calling_enabled"`
	ReminderSent     bool          `json:"reminder_sent"`
	BackendSessionID string        `json:"backend_session_id,omitempty"`
	DocumentURL      string        `json:"document_url,omitempty"`
	Notes            string        `json:"notes"`
	PackageInfo      gModel.Extras `json:"package_info"`
	PaymentInfo      gModel.Extras `json:"payment_info"`
	gDto.Metadata
}

func (r *AppointmentResponse) FromModel(model model.Appointment) {
	r.ID = model.ID
	r.OrgID = model.OrgID
	r.DepartmentID = model.DepartmentID
	r.ProviderEmail = model.ProviderEmail
	r.ProviderName = model.ProviderName
	r.ClientID = model.ClientID.String
	r.ClientName = model.ClientName
	r.ClientEmail = model.ClientEmail
	r.ClientPhone = model.ClientPhone
	r.ClientMRN = model.ClientMRN
	r.StartTime = timezone.Format(model.StartTime, constant.DateFormat)
	r.EndTime = timezone.Format(model.EndTime, constant.DateFormat)
	r.Status = model.Status
	r.CallingEnabled = model.CallingEnabled
	r.ReminderSent = model.ReminderSent
	r.BackendSessionID = model.BackendSessionID.String
	r.DocumentURL = model.DocumentURL
	r.Notes = model.Notes
	r.PackageInfo = model.PackageInfo
	r.PaymentInfo = model.PaymentInfo
	r.Metadata.FromModel(model.Metadata)
}

type GetAppointmentsResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetAppointmentsResponse) FromModels(models []model.Appointment, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Appointments = make([]AppointmentResponse, len(models))
	for i, mod := range models {
		r.Appointments[i].FromModel(mod)
	}
}

type CreateAppointmentResponse struct {
	AppointmentResponse
	SessionScheduled bool `json:"session_scheduled"`
}

// DeleteAppointmentResponse reports a session teardown failure without failing the delete.
type DeleteAppointmentResponse struct {
	ID      string `json:"id"`
	Warning string `json:"warning,omitempty"`
}

type DocumentResponse struct {
	ID          string `json:"id"`
	DocumentURL string `json:"document_url"`
}

func parseWindow(start, end string) (model.Window, error) {
	startTime, err := timezone.Parse(constant.DateFormat, start)
	if err != nil {
		return model.Window{}, err
	}

	endTime, err := timezone.Parse(constant.DateFormat, end)
	if err != nil {
		return model.Window{}, err
	}

	return model.Window{Start: startTime, End: endTime}, nil
}

// NullString maps "" to NULL for optional references.
func NullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// Document is an uploaded attachment. Body is read once.
type Document struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
