package api

import (
	"net/http"

	"attendance.service/internal/api/handler"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

// NewRouter sets up the gorilla/mux routes behind the CORS handler.
func NewRouter(h *handler.Handler, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/sessions", h.Login).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(handler.RequireSession(h.Auth))

	authed.HandleFunc("/admin/password", h.ChangePassword).Methods(http.MethodPut)
	authed.HandleFunc("/rates", h.GetRates).Methods(http.MethodGet)
	authed.HandleFunc("/rates", h.PutRates).Methods(http.MethodPut)

	authed.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	authed.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	authed.HandleFunc("/users/{id}", h.RenameUser).Methods(http.MethodPut)
	authed.HandleFunc("/users/{id}", h.DeleteUser).Methods(http.MethodDelete)

	authed.HandleFunc("/users/{id}/presence", h.Presence).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/taps", h.RecordTap).Methods(http.MethodPost)
	authed.HandleFunc("/users/{id}/events", h.ListEvents).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/events", h.AddEvent).Methods(http.MethodPost)
	authed.HandleFunc("/users/{id}/events", h.UpdateEvent).Methods(http.MethodPut)
	authed.HandleFunc("/users/{id}/events", h.DeleteEvent).Methods(http.MethodDelete)
	authed.HandleFunc("/users/{id}/days/{date}", h.DeleteDay).Methods(http.MethodDelete)
	authed.HandleFunc("/users/{id}/special-ranges", h.AddSpecialRange).Methods(http.MethodPost)

	authed.HandleFunc("/users/{id}/report", h.Report).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/report.xlsx", h.ReportXLSX).Methods(http.MethodGet)
	authed.HandleFunc("/users/{id}/report/email", h.EmailReport).Methods(http.MethodPost)

	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	})(r)
}
