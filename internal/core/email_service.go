package core

import (
	"context"
	"fmt"
	"strings"

	"attendance.service/internal/core/attendance"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type EmailService interface {
	SendReportSummary(ctx context.Context, to, personName, periodLabel string, report *attendance.Report) error
}

// SESClient is the part of the SES API the email service uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

func (s *SESEmailService) SendReportSummary(ctx context.Context, to, personName, periodLabel string, report *attendance.Report) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	// Enrich span with employeeId if available in context
	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != "" {
		span.SetAttributes(attribute.String("app.employeeId", empID))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Attendance report %s: %s", periodLabel, personName)),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(ReportSummaryText(personName, periodLabel, report)),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

// ReportSummaryText renders the plain-text body of a report email.
func ReportSummaryText(personName, periodLabel string, report *attendance.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello,\n\nattendance summary for %s (%s):\n\n", personName, periodLabel)
	for _, day := range report.Days {
		fmt.Fprintf(&b, "%s  worked %s  break %s  earned %s", day.Date, day.Worked, day.BreakTime, day.Earnings)
		if day.Summary.SpecialLabel != "" {
			fmt.Fprintf(&b, "  [%s]", day.Summary.SpecialLabel)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTotal: worked %s, break %s, earned %s\n", report.TotalWorked, report.TotalBreak, report.TotalEarningsText)
	return b.String()
}
