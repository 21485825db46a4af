package repository

import (
	"context"

	"attendance.service/internal/core/model"
)

// EventStore keeps one versioned event list per person. Writes replace the
// whole list and succeed only when expectedVersion matches the stored
// version; otherwise they fail with model.ErrConcurrentModification and
// nothing is written. A person with no list yet has version 0.
type EventStore interface {
	GetEvents(ctx context.Context, personID string) ([]model.AttendanceEvent, int64, error)
	PutEvents(ctx context.Context, personID string, events []model.AttendanceEvent, expectedVersion int64) (int64, error)
}

// SettingsStore keeps the rates table and the admin blob. Missing rows are model.ErrNotFound.
type SettingsStore interface {
	GetRates(ctx context.Context) (model.RateTable, error)
	PutRates(ctx context.Context, rates model.RateTable) error
	GetAdminSettings(ctx context.Context) (model.AdminSettings, error)
	PutAdminSettings(ctx context.Context, settings model.AdminSettings) error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	SaveUser(ctx context.Context, user model.User) error
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// Repository contract
type Repository interface {
	EventStore
	SettingsStore
	UserStore
}
