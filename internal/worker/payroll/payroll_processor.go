package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker"
	"attendance.service/internal/worker/payrollapi"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// SummarySource recomputes a day summary from the record store.
type SummarySource interface {
	DaySummary(ctx context.Context, personID, dateKey string) (model.DaySummary, error)
}

// Processor pushes the summary of each day with a recorded departure to the
// payroll API. Calls go through a circuit breaker.
type Processor struct {
	summaries SummarySource
	payroll   payrollapi.Client
	cb        *gobreaker.CircuitBreaker
}

func NewProcessor(summaries SummarySource, payroll payrollapi.Client) *Processor {
	settings := gobreaker.Settings{
		Name:        "Payroll-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is at least 50% after 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("Circuit breaker state changed")
		},
	}

	return &Processor{
		summaries: summaries,
		payroll:   payroll,
		cb:        gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.DepartureRecorded
	if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal departure event")
		return false, 0, err
	}
	if event.EmployeeID == "" || event.Date == "" {
		return false, 0, fmt.Errorf("departure event %q is missing employee or date", event.MessageID)
	}

	logger := log.Ctx(ctx).With().Str("employee_id", event.EmployeeID).Str("date", event.Date).Logger()
	attempt := worker.ReceiveCount(msg)

	summary, err := p.summaries.DaySummary(ctx, event.EmployeeID, event.Date)
	if err != nil {
		if errors.Is(err, model.ErrMalformedInput) {
			logger.Error().Err(err).Msg("Stored events cannot be summarized")
			return false, 0, err
		}
		return true, worker.Backoff(attempt), fmt.Errorf("failed to summarize day: %w", err)
	}

	payload := payrollapi.NewDaySummaryPayload(event.EmployeeID, event.Date, summary)
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.payroll.PostDaySummary(ctx, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.Warn().Msg("Circuit breaker is open; skipping payroll API call")
		}
		return true, worker.Backoff(attempt), err
	}

	logger.Info().Int("worked_minutes", summary.WorkedMinutes).Str("earnings", payload.Earnings.StringFixed(2)).Msg("Day summary sent to payroll")
	return false, 0, nil
}
