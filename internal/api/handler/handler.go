package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/attendance"
	"attendance.service/internal/core/model"
	"attendance.service/internal/export"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	Attendance *core.AttendanceService
	Reports    *core.ReportService
	Auth       *core.AuthService
	// RecipientFor picks the address of a report email when the request names none.
	RecipientFor func(personID string) string
	// RenderXLSX defaults to export.WriteXLSX.
	RenderXLSX func(w io.Writer, personName string, report *attendance.Report) error
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Service is operational."))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		token   string
		session model.Session
		err     error
	)
	switch {
	case req.Password != "":
		token, session, err = h.Auth.LoginAdmin(r.Context(), req.Password)
	case req.PersonID != "":
		token, session, err = h.Auth.LoginUser(r.Context(), req.PersonID)
	default:
		writeError(w, r, &model.MalformedInputError{Index: -1, Field: "password", Reason: "password or personId is required"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Role: session.Role, ExpiresAt: session.ExpiresAt})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Auth.ChangePassword(r.Context(), SessionFromContext(r.Context()), req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Attendance.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Attendance.AddUser(r.Context(), SessionFromContext(r.Context()), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) RenameUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.Attendance.RenameUser(r.Context(), SessionFromContext(r.Context()), personID(r), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Attendance.RemoveUser(r.Context(), SessionFromContext(r.Context()), personID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{Matched: deleted})
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Attendance.Events(r.Context(), SessionFromContext(r.Context()), personID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	presence, err := h.Attendance.Presence(r.Context(), SessionFromContext(r.Context()), personID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PresenceResponse{PersonID: personID(r), Status: presence})
}

func (h *Handler) RecordTap(w http.ResponseWriter, r *http.Request) {
	var req TapRequest
	if !decode(w, r, &req) {
		return
	}
	ev, err := h.Attendance.RecordTap(r.Context(), SessionFromContext(r.Context()), personID(r), req.Kind, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *Handler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.AttendanceEvent
	if !decode(w, r, &ev) {
		return
	}
	added, err := h.Attendance.AddEvent(r.Context(), SessionFromContext(r.Context()), personID(r), ev)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{Matched: added})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req UpdateEventRequest
	if !decode(w, r, &req) {
		return
	}
	updated, err := h.Attendance.UpdateEvent(r.Context(), SessionFromContext(r.Context()), personID(r), req.Old, req.New)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{Matched: updated})
}

// DeleteEvent identifies the event by the type and timestamp in the JSON body,
// the same identity UpdateEvent takes as "old".
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	var target model.AttendanceEvent
	if !decode(w, r, &target) {
		return
	}
	deleted, err := h.Attendance.DeleteEvent(r.Context(), SessionFromContext(r.Context()), personID(r), target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{Matched: deleted})
}

func (h *Handler) DeleteDay(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Attendance.DeleteDay(r.Context(), SessionFromContext(r.Context()), personID(r), mux.Vars(r)["date"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultResponse{Matched: deleted})
}

func (h *Handler) AddSpecialRange(w http.ResponseWriter, r *http.Request) {
	var req SpecialRangeRequest
	if !decode(w, r, &req) {
		return
	}
	loc := h.Attendance.Location()
	from, err := attendance.ParseDateKey(req.From, loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := attendance.ParseDateKey(req.To, loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	added, err := h.Attendance.AddSpecialRange(r.Context(), SessionFromContext(r.Context()), personID(r), req.Kind, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SpecialRangeResponse{Added: added})
}

func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Attendance.Rates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (h *Handler) PutRates(w http.ResponseWriter, r *http.Request) {
	var rates model.RateTable
	if !decode(w, r, &rates) {
		return
	}
	if err := h.Attendance.PutRates(r.Context(), SessionFromContext(r.Context()), rates); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.Reports.Report(r.Context(), SessionFromContext(r.Context()), personID(r), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) ReportXLSX(w http.ResponseWriter, r *http.Request) {
	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id := personID(r)
	report, err := h.Reports.Report(r.Context(), SessionFromContext(r.Context()), id, period)
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := id
	if user, err := h.Attendance.User(r.Context(), id); err == nil {
		name = user.Name
	}

	render := h.RenderXLSX
	if render == nil {
		render = export.WriteXLSX
	}
	var buf bytes.Buffer
	if err := render(&buf, name, report); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("person_id", id).Msg("Failed to render xlsx report")
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance-`+id+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) EmailReport(w http.ResponseWriter, r *http.Request) {
	var req EmailReportRequest
	if !decode(w, r, &req) {
		return
	}
	period, err := core.NewPeriod(req.Year, req.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recipient := req.Recipient
	if recipient == "" && h.RecipientFor != nil {
		recipient = h.RecipientFor(personID(r))
	}

	jobID, err := h.Reports.RequestEmail(r.Context(), SessionFromContext(r.Context()), personID(r), recipient, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, EmailReportResponse{JobID: jobID})
}

func personID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func periodFromQuery(r *http.Request) (core.Period, error) {
	q := r.URL.Query()
	year, err := intParam(q.Get("year"), "year")
	if err != nil {
		return core.Period{}, err
	}
	month, err := intParam(q.Get("month"), "month")
	if err != nil {
		return core.Period{}, err
	}
	return core.NewPeriod(year, month)
}

func intParam(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &model.MalformedInputError{Index: -1, Field: field, Value: raw, Reason: "expected a number"}
	}
	return n, nil
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps domain errors to status codes. A store outage is 503 so
// clients show "unavailable" instead of empty data.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	resp := ErrorResponse{Error: message}
	if status < http.StatusInternalServerError {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrMalformedInput):
		return http.StatusBadRequest, "Malformed input"
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, model.ErrConcurrentModification):
		return http.StatusConflict, "Record was modified concurrently, reload and retry"
	case errors.Is(err, model.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Record store unavailable"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
