package core

import (
	"context"
	"errors"
	"time"

	"attendance.service/internal/core/attendance"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Period selects the events a report covers. The zero Period is all history.
type Period struct {
	Year  int
	Month time.Month
}

func (p Period) IsAll() bool {
	return p.Year == 0 || p.Month == 0
}

// NewPeriod validates a year/month pair. Both zero means all history.
func NewPeriod(year, month int) (Period, error) {
	if year == 0 && month == 0 {
		return Period{}, nil
	}
	if month < 1 || month > 12 {
		return Period{}, &model.MalformedInputError{Index: -1, Field: "month", Reason: "month must be 1..12"}
	}
	if year < 1 || year > 9999 {
		return Period{}, &model.MalformedInputError{Index: -1, Field: "year", Reason: "year is out of range"}
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// ErrEmailQueueUnavailable is returned by RequestEmail when the service was
// built without an event publisher.
var ErrEmailQueueUnavailable = errors.New("report email queue is not configured")

// ReportService is the read path: store → grouper → accountant → earnings → report.
// Store failures are returned as is and never replaced by an empty report.
type ReportService struct {
	repo      repository.Repository
	publisher messaging.EventPublisher
	loc       *time.Location
	defaults  model.RateTable
}

func NewReportService(repo repository.Repository, publisher messaging.EventPublisher, loc *time.Location, defaults model.RateTable) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{repo: repo, publisher: publisher, loc: loc, defaults: defaults}
}

func (s *ReportService) Location() *time.Location {
	return s.loc
}

// Report builds the report of personID for the given period.
func (s *ReportService) Report(ctx context.Context, session model.Session, personID string, period Period) (*attendance.Report, error) {
	if !session.CanActFor(personID) {
		return nil, model.ErrForbidden
	}
	return s.build(ctx, personID, period)
}

// DaySummary recomputes the summary of one calendar day. Used by the payroll worker.
func (s *ReportService) DaySummary(ctx context.Context, personID, dateKey string) (model.DaySummary, error) {
	if _, err := attendance.ParseDateKey(dateKey, s.loc); err != nil {
		return model.DaySummary{}, err
	}
	events, _, err := s.repo.GetEvents(ctx, personID)
	if err != nil {
		return model.DaySummary{}, err
	}
	rates, err := loadRates(ctx, s.repo, s.defaults)
	if err != nil {
		return model.DaySummary{}, err
	}
	days, err := attendance.GroupByDay(events, s.loc)
	if err != nil {
		return model.DaySummary{}, err
	}
	return attendance.Summarize(dateKey, days[dateKey], rates, s.loc)
}

// RequestEmail queues a report summary email for personID.
func (s *ReportService) RequestEmail(ctx context.Context, session model.Session, personID, recipient string, period Period) (string, error) {
	if !session.CanActFor(personID) {
		return "", model.ErrForbidden
	}
	if recipient == "" {
		return "", &model.MalformedInputError{Index: -1, Field: "recipient", Reason: "recipient is required"}
	}
	if s.publisher == nil {
		return "", ErrEmailQueueUnavailable
	}
	if _, err := s.repo.GetUser(ctx, personID); err != nil {
		return "", err
	}

	event := messaging.ReportEmailRequested{
		MessageID:   uuid.NewString(),
		EmployeeID:  personID,
		Recipient:   recipient,
		Year:        period.Year,
		Month:       int(period.Month),
		RequestedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishReportEmail(ctx, event); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("person_id", personID).Msg("Failed to queue report email")
		return "", err
	}
	log.Ctx(ctx).Info().Str("person_id", personID).Str("job_id", event.MessageID).Msg("Report email queued")
	return event.MessageID, nil
}

// BuildForJob builds a report without a caller session, for queue workers.
func (s *ReportService) BuildForJob(ctx context.Context, personID string, period Period) (*attendance.Report, error) {
	return s.build(ctx, personID, period)
}

func (s *ReportService) build(ctx context.Context, personID string, period Period) (*attendance.Report, error) {
	events, _, err := s.repo.GetEvents(ctx, personID)
	if err != nil {
		return nil, err
	}
	rates, err := loadRates(ctx, s.repo, s.defaults)
	if err != nil {
		return nil, err
	}
	if !period.IsAll() {
		events = attendance.FilterMonth(events, period.Year, period.Month, s.loc)
	}
	return attendance.BuildReport(events, rates, s.loc)
}
