package main

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"attendance.service/internal/worker/payrollapi"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// store keeps the latest summary per employee and day, like the real payroll upsert.
type store struct {
	mu   sync.Mutex
	days map[string]payrollapi.DaySummaryPayload
}

func (s *store) post(w http.ResponseWriter, r *http.Request) {
	var payload payrollapi.DaySummaryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.days[payload.EmployeeID+"/"+payload.Date] = payload
	s.mu.Unlock()

	log.Info().
		Str("employee_id", payload.EmployeeID).
		Str("date", payload.Date).
		Int("worked_minutes", payload.WorkedMinutes).
		Str("earnings", payload.Earnings.StringFixed(2)).
		Msg("Received day summary")
	w.WriteHeader(http.StatusOK)
}

func (s *store) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]payrollapi.DaySummaryPayload, 0, len(s.days))
	for _, d := range s.days {
		out = append(out, d)
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func main() {
	addr := pflag.String("addr", ":8081", "listen address")
	pflag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	s := &store{days: make(map[string]payrollapi.DaySummaryPayload)}
	r := mux.NewRouter()
	r.HandleFunc("/", s.post).Methods(http.MethodPost)
	r.HandleFunc("/days", s.list).Methods(http.MethodGet)

	log.Info().Str("addr", *addr).Msg("Payroll API mock server starting")
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
