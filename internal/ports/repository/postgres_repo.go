package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"attendance.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ratesKey = "attendance-rates"
	adminKey = "attendance-admin-settings"
)

// PostgresRepository is the concrete implementation for a PostgreSQL database.
// Each person's events live in one JSONB row guarded by a version column.
type PostgresRepository struct {
	DB *sql.DB
}

// NewPostgresRepository create new instance
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

// Migrate creates the tables when they do not exist yet.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS attendance_records (
		person_id  TEXT PRIMARY KEY,
		events     JSONB NOT NULL DEFAULT '[]'::jsonb,
		version    BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS settings (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`

	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return model.StoreError("migrate", err)
	}
	return nil
}

// GetEvents returns the person's events and their version.
func (r *PostgresRepository) GetEvents(ctx context.Context, personID string) ([]model.AttendanceEvent, int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.person_id", personID))

	var raw []byte
	var version int64
	query := `SELECT events, version FROM attendance_records WHERE person_id = $1`

	err := r.DB.QueryRowContext(ctx, query, personID).Scan(&raw, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.AttendanceEvent{}, 0, nil
	}
	if err != nil {
		return nil, 0, model.StoreError("get events", err)
	}

	events, err := model.DecodeEvents(raw)
	if err != nil {
		return nil, 0, err
	}
	return events, version, nil
}

// PutEvents replaces the person's list when expectedVersion is current.
func (r *PostgresRepository) PutEvents(ctx context.Context, personID string, events []model.AttendanceEvent, expectedVersion int64) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("app.person_id", personID),
		attribute.Int64("app.expected_version", expectedVersion),
	)

	raw, err := model.EncodeEvents(events)
	if err != nil {
		return 0, err
	}

	var query string
	var args []any
	if expectedVersion == 0 {
		query = `INSERT INTO attendance_records (person_id, events, version, updated_at)
		          VALUES ($1, $2, 1, $3)
		          ON CONFLICT (person_id) DO NOTHING
		          RETURNING version`
		args = []any{personID, raw, time.Now().UTC()}
	} else {
		query = `UPDATE attendance_records
		          SET events = $2, version = version + 1, updated_at = $3
		          WHERE person_id = $1 AND version = $4
		          RETURNING version`
		args = []any{personID, raw, time.Now().UTC(), expectedVersion}
	}

	var version int64
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrConcurrentModification
	}
	if err != nil {
		return 0, model.StoreError("put events", err)
	}
	return version, nil
}

// GetRates returns the stored rates table.
func (r *PostgresRepository) GetRates(ctx context.Context) (model.RateTable, error) {
	var rates model.RateTable
	err := r.getSetting(ctx, ratesKey, &rates)
	return rates, err
}

func (r *PostgresRepository) PutRates(ctx context.Context, rates model.RateTable) error {
	return r.putSetting(ctx, ratesKey, rates)
}

func (r *PostgresRepository) GetAdminSettings(ctx context.Context) (model.AdminSettings, error) {
	var settings model.AdminSettings
	err := r.getSetting(ctx, adminKey, &settings)
	return settings, err
}

func (r *PostgresRepository) PutAdminSettings(ctx context.Context, settings model.AdminSettings) error {
	return r.putSetting(ctx, adminKey, settings)
}

func (r *PostgresRepository) getSetting(ctx context.Context, key string, dst any) error {
	var raw []byte
	err := r.DB.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return model.StoreError("get "+key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &model.MalformedInputError{Index: -1, Field: key, Value: string(raw), Reason: err.Error()}
	}
	return nil
}

func (r *PostgresRepository) putSetting(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	query := `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
	          ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := r.DB.ExecContext(ctx, query, key, raw, time.Now().UTC()); err != nil {
		return model.StoreError("put "+key, err)
	}
	return nil
}

// ListUsers returns all users ordered by name.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name FROM users ORDER BY name, id`)
	if err != nil {
		return nil, model.StoreError("list users", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, model.StoreError("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, model.StoreError("list users", err)
	}
	return users, nil
}

func (r *PostgresRepository) GetUser(ctx context.Context, id string) (model.User, error) {
	u := model.User{}
	err := r.DB.QueryRowContext(ctx, `SELECT id, name FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrNotFound
	}
	if err != nil {
		return model.User{}, model.StoreError("get user", err)
	}
	return u, nil
}

// SaveUser inserts or renames a user.
func (r *PostgresRepository) SaveUser(ctx context.Context, user model.User) error {
	query := `INSERT INTO users (id, name) VALUES ($1, $2)
	          ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	if _, err := r.DB.ExecContext(ctx, query, user.ID, user.Name); err != nil {
		return model.StoreError("save user", err)
	}
	return nil
}

// DeleteUser removes the user row. Attendance records are kept.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, model.StoreError("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, model.StoreError("delete user", err)
	}
	return n > 0, nil
}
