package model

type Kind string

const (
	KindInvitation   Kind = "invitation"
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
)

const (
	SubjectInvitation   = "Meeting Invitation"
	SubjectConfirmation = "Appointment Confirmation"
	SubjectReminder     = "Booking Reminder"
)

// Template variable names.
const (
	VarClientName      = "client_name"
	VarProviderName    = "provider_name"
	VarAppointmentDate = "appointment_date"
	VarAppointmentTime = "appointment_time"
	VarPackageName     = "package_name"
	VarMeetingURL      = "meeting_url"
	VarWebsiteURL      = "website_url"
)

type Message struct {
	Kind      Kind              `json:"kind"`
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Variables map[string]string `json:"variables"`
}

// Rendered is the payload handed to the delivery channel.
type Rendered struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
