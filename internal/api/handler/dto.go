package handler

import (
	"time"

	"attendance.service/internal/core/attendance"
	"attendance.service/internal/core/model"
)

// LoginRequest carries either the admin password or a person id.
type LoginRequest struct {
	Password string `json:"password,omitempty"`
	PersonID string `json:"personId,omitempty"`
}

type LoginResponse struct {
	Token     string     `json:"token"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type UserRequest struct {
	Name string `json:"name"`
}

type TapRequest struct {
	Kind model.Kind `json:"type"`
}

type UpdateEventRequest struct {
	Old model.AttendanceEvent `json:"old"`
	New model.AttendanceEvent `json:"new"`
}

// SpecialRangeRequest dates are yyyy-mm-dd, both inclusive.
type SpecialRangeRequest struct {
	Kind model.Kind `json:"type"`
	From string     `json:"from"`
	To   string     `json:"to"`
}

type SpecialRangeResponse struct {
	Added int `json:"added"`
}

type EmailReportRequest struct {
	Recipient string `json:"recipient,omitempty"`
	Year      int    `json:"year,omitempty"`
	Month     int    `json:"month,omitempty"`
}

type EmailReportResponse struct {
	JobID string `json:"jobId"`
}

// ResultResponse reports whether an identity-based operation found its target.
type ResultResponse struct {
	Matched bool `json:"matched"`
}

type PresenceResponse struct {
	PersonID string              `json:"personId"`
	Status   attendance.Presence `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
