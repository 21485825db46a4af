package payrollapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"attendance.service/internal/core/model"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DaySummaryPayload is what the payroll system receives for one person-day.
// The payroll side upserts by (employeeId, date), so resending is harmless.
type DaySummaryPayload struct {
	EmployeeID    string          `json:"employeeId"`
	Date          string          `json:"date"`
	WorkedMinutes int             `json:"workedMinutes"`
	BreakMinutes  int             `json:"breakMinutes"`
	IsWeekend     bool            `json:"isWeekend"`
	Earnings      decimal.Decimal `json:"earnings"`
	SpecialLabel  string          `json:"specialLabel,omitempty"`
}

func NewDaySummaryPayload(employeeID, date string, s model.DaySummary) DaySummaryPayload {
	return DaySummaryPayload{
		EmployeeID:    employeeID,
		Date:          date,
		WorkedMinutes: s.WorkedMinutes,
		BreakMinutes:  s.BreakMinutes,
		IsWeekend:     s.IsWeekend,
		Earnings:      s.Earnings.Round(2),
		SpecialLabel:  s.SpecialLabel,
	}
}

// Client is the payroll system contract.
type Client interface {
	PostDaySummary(ctx context.Context, payload DaySummaryPayload) error
}

// HTTPClient posts day summaries as JSON.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

func (c *HTTPClient) PostDaySummary(ctx context.Context, payload DaySummaryPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payroll payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create payroll request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payroll api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("payroll api returned non-successful status code: %d", resp.StatusCode)
	}

	log.Ctx(ctx).Debug().Str("employee_id", payload.EmployeeID).Str("date", payload.Date).Msg("Day summary posted to payroll")
	return nil
}
