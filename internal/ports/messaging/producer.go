package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender          MessageSender
	payrollQueueURL string
	emailQueueURL   string
}

func NewProducer(sender MessageSender, payrollQueueURL, emailQueueURL string) *Producer {
	return &Producer{
		sender:          sender,
		payrollQueueURL: payrollQueueURL,
		emailQueueURL:   emailQueueURL,
	}
}

// NewSQSProducer creates a new Producer backed by an AWS SQS sender.
func NewSQSProducer(client SQSClient, payrollQueueURL, emailQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, payrollQueueURL, emailQueueURL)
}

func (p *Producer) PublishDeparture(ctx context.Context, event DepartureRecorded) error {
	return p.publish(ctx, p.payrollQueueURL, EventDepartureRecorded, event.EmployeeID, event)
}

func (p *Producer) PublishReportEmail(ctx context.Context, event ReportEmailRequested) error {
	return p.publish(ctx, p.emailQueueURL, EventReportEmailRequested, event.EmployeeID, event)
}

func (p *Producer) publish(ctx context.Context, destination, eventType, employeeID string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && employeeID != "" {
		span.SetAttributes(attribute.String("app.employeeId", employeeID))
	}

	if err := p.sender.SendMessage(ctx, destination, eventType, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
