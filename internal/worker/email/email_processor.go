package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"attendance.service/internal/core"
	"attendance.service/internal/core/attendance"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// ReportBuilder assembles a report for a queued job.
type ReportBuilder interface {
	BuildForJob(ctx context.Context, personID string, period core.Period) (*attendance.Report, error)
}

type EmailProcessor struct {
	emailService core.EmailService
	reports      ReportBuilder
	users        repository.UserStore
}

// NewProcessor sets up the processor for report email jobs.
func NewProcessor(emailService core.EmailService, reports ReportBuilder, users repository.UserStore) *EmailProcessor {
	return &EmailProcessor{
		emailService: emailService,
		reports:      reports,
		users:        users,
	}
}

func (p *EmailProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.ReportEmailRequested
	if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal email event")
		return false, 0, err // Do not retry on malformed message
	}

	logger := log.Ctx(ctx).With().Str("employee_id", event.EmployeeID).Str("job_id", event.MessageID).Logger()
	attempt := worker.ReceiveCount(msg)

	period, err := core.NewPeriod(event.Year, event.Month)
	if err != nil {
		return false, 0, err
	}

	user, err := p.users.GetUser(ctx, event.EmployeeID)
	if errors.Is(err, model.ErrNotFound) {
		logger.Warn().Msg("User no longer exists. Skipping.")
		return false, 0, nil
	}
	if err != nil {
		return true, worker.Backoff(attempt), fmt.Errorf("failed to load user: %w", err)
	}

	report, err := p.reports.BuildForJob(ctx, event.EmployeeID, period)
	if err != nil {
		if errors.Is(err, model.ErrMalformedInput) {
			return false, 0, err
		}
		return true, worker.Backoff(attempt), fmt.Errorf("failed to build report: %w", err)
	}

	if err := p.emailService.SendReportSummary(ctx, event.Recipient, user.Name, periodLabel(period), report); err != nil {
		return true, worker.Backoff(attempt), err
	}

	logger.Info().Int("days", len(report.Days)).Msg("Report email sent")
	return false, 0, nil
}

func periodLabel(p core.Period) string {
	if p.IsAll() {
		return "all records"
	}
	return fmt.Sprintf("%02d/%d", int(p.Month), p.Year)
}
