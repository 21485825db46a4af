package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the closed set of attendance event kinds.
type Kind uint8

const (
	KindArrival Kind = iota + 1
	KindDeparture
	KindBreak
	KindVacation
	KindSick
)

var kindNames = map[Kind]string{
	KindArrival:   "arrival",
	KindDeparture: "departure",
	KindBreak:     "break",
	KindVacation:  "vacation",
	KindSick:      "sick",
}

var kindLabels = map[Kind]string{
	KindArrival:   "Arrival",
	KindDeparture: "Departure",
	KindBreak:     "Break",
	KindVacation:  "Vacation",
	KindSick:      "Sick",
}

// ParseKind converts the wire name of a kind ("arrival", "sick", ...) into a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, &MalformedInputError{Index: -1, Field: "kind", Value: s, Reason: "unrecognized event kind"}
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Label is the human readable name used in reports.
func (k Kind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return k.String()
}

// IsSpecial reports whether the kind is an all-day absence marker.
func (k Kind) IsSpecial() bool {
	return k == KindVacation || k == KindSick
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, &MalformedInputError{Index: -1, Field: "kind", Value: k.String(), Reason: "unrecognized event kind"}
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// AttendanceEvent is a single timestamped entry in a person's record set.
// Identity is the (Timestamp, Kind) pair.
type AttendanceEvent struct {
	Kind       Kind      `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	IsCustom   bool      `json:"isCustom,omitempty"`
	IsSpecial  bool      `json:"isSpecial,omitempty"`
	AllDay     bool      `json:"allDay,omitempty"`
	ChangeNote string    `json:"changeLog,omitempty"`
}

// SameIdentity reports whether two events share the (timestamp, kind) identity.
func (e AttendanceEvent) SameIdentity(other AttendanceEvent) bool {
	return e.Kind == other.Kind && e.Timestamp.Equal(other.Timestamp)
}

// RateTable holds the hourly pay rates.
type RateTable struct {
	WeekdayRate decimal.Decimal `json:"weekday"`
	WeekendRate decimal.Decimal `json:"weekend"`
}

// NewRateTable builds a RateTable from plain numbers.
func NewRateTable(weekday, weekend float64) RateTable {
	return RateTable{
		WeekdayRate: decimal.NewFromFloat(weekday),
		WeekendRate: decimal.NewFromFloat(weekend),
	}
}

// Validate rejects negative rates.
func (r RateTable) Validate() error {
	if r.WeekdayRate.IsNegative() {
		return &MalformedInputError{Index: -1, Field: "weekday", Value: r.WeekdayRate.String(), Reason: "rate must not be negative"}
	}
	if r.WeekendRate.IsNegative() {
		return &MalformedInputError{Index: -1, Field: "weekend", Value: r.WeekendRate.String(), Reason: "rate must not be negative"}
	}
	return nil
}

// For returns the rate that applies to a weekday or weekend day.
func (r RateTable) For(isWeekend bool) decimal.Decimal {
	if isWeekend {
		return r.WeekendRate
	}
	return r.WeekdayRate
}

// DaySummary is derived from a day's events on every read and never stored.
type DaySummary struct {
	Date            time.Time       `json:"date"`
	WorkedMinutes   int             `json:"workedMinutes"`
	BreakMinutes    int             `json:"breakMinutes"`
	IsWeekend       bool            `json:"isWeekend"`
	Earnings        decimal.Decimal `json:"earnings"`
	HasCustomEntry  bool            `json:"hasCustomEntry"`
	HasSpecialEntry bool            `json:"hasSpecialEntry"`
	SpecialLabel    string          `json:"specialLabel,omitempty"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdminSettings is the admin blob kept in the record store.
type AdminSettings struct {
	PasswordHash string    `json:"passwordHash"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Role defines what a session may mutate.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Session is the authenticated caller of a mutating operation.
type Session struct {
	Subject   string    `json:"sub"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"exp"`
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// CanActFor reports whether the session may record taps for personID.
func (s Session) CanActFor(personID string) bool {
	return s.IsAdmin() || (s.Role == RoleUser && s.Subject == personID)
}
