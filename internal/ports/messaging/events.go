package messaging

import "time"

// Event type names carried in the EventType message attribute.
const (
	EventDepartureRecorded    = "DEPARTURE_RECORDED"
	EventReportEmailRequested = "REPORT_EMAIL_REQUESTED"
)

// DepartureRecorded is the JSON payload sent via SQS for the payroll queue.
// Date is the local calendar date key of the departure.
type DepartureRecorded struct {
	MessageID  string    `json:"messageId"`
	EmployeeID string    `json:"employeeId"`
	Date       string    `json:"date"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ReportEmailRequested is the JSON payload sent via SQS for the email queue.
// A zero Year or Month means the whole history.
type ReportEmailRequested struct {
	MessageID   string    `json:"messageId"`
	EmployeeID  string    `json:"employeeId"`
	Recipient   string    `json:"recipient"`
	Year        int       `json:"year,omitempty"`
	Month       int       `json:"month,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}
