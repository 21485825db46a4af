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

// maxSpecialRangeDays bounds AddSpecialRange to roughly a year.
const maxSpecialRangeDays = 366

type AttendanceService struct {
	repo      repository.Repository
	publisher messaging.EventPublisher
	loc       *time.Location
	defaults  model.RateTable
}

// NewAttendanceService wires the record store and the event publisher.
// loc is the calendar used for date keys; defaults apply until rates are saved.
func NewAttendanceService(repo repository.Repository, publisher messaging.EventPublisher, loc *time.Location, defaults model.RateTable) *AttendanceService {
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceService{
		repo:      repo,
		publisher: publisher,
		loc:       loc,
		defaults:  defaults,
	}
}

// Location is the calendar every date key is computed in.
func (s *AttendanceService) Location() *time.Location {
	return s.loc
}

// Events returns a person's stored events sorted by time.
func (s *AttendanceService) Events(ctx context.Context, session model.Session, personID string) ([]model.AttendanceEvent, error) {
	if !session.CanActFor(personID) {
		return nil, model.ErrForbidden
	}
	events, _, err := s.repo.GetEvents(ctx, personID)
	if err != nil {
		return nil, err
	}
	return attendance.SortByTime(events), nil
}

// Presence reports whether personID is currently at work.
func (s *AttendanceService) Presence(ctx context.Context, session model.Session, personID string) (attendance.Presence, error) {
	events, err := s.Events(ctx, session, personID)
	if err != nil {
		return "", err
	}
	return attendance.CurrentPresence(events), nil
}

// RecordTap stores an Arrival, Departure or Break at instant at, truncated
// to the second. A Departure also notifies the payroll queue.
func (s *AttendanceService) RecordTap(ctx context.Context, session model.Session, personID string, kind model.Kind, at time.Time) (model.AttendanceEvent, error) {
	logger := log.Ctx(ctx).With().Str("person_id", personID).Stringer("kind", kind).Logger()

	if !session.CanActFor(personID) {
		return model.AttendanceEvent{}, model.ErrForbidden
	}
	if !kind.Valid() || kind.IsSpecial() {
		return model.AttendanceEvent{}, &model.MalformedInputError{Index: -1, Field: "type", Value: kind.String(), Reason: "taps record arrival, departure or break"}
	}
	if _, err := s.repo.GetUser(ctx, personID); err != nil {
		return model.AttendanceEvent{}, err
	}

	ev := model.AttendanceEvent{Kind: kind, Timestamp: at.UTC().Truncate(time.Second)}
	_, err := s.mutate(ctx, personID, func(events []model.AttendanceEvent) ([]model.AttendanceEvent, bool) {
		return append(events, ev), true
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to record tap")
		return model.AttendanceEvent{}, err
	}
	logger.Info().Time("timestamp", ev.Timestamp).Msg("Tap recorded")

	if kind == model.KindDeparture && s.publisher != nil {
		event := messaging.DepartureRecorded{
			MessageID:  uuid.NewString(),
			EmployeeID: personID,
			Date:       attendance.DateKey(ev.Timestamp, s.loc),
			OccurredAt: ev.Timestamp,
		}
		// the tap is already stored; a lost notification is only logged
		if err := s.publisher.PublishDeparture(ctx, event); err != nil {
			logger.Warn().Err(err).Msg("Failed to publish departure event")
		}
	}
	return ev, nil
}

// AddEvent stores a custom event entered by an admin. It returns false when
// an event with the same identity already exists.
func (s *AttendanceService) AddEvent(ctx context.Context, session model.Session, personID string, ev model.AttendanceEvent) (bool, error) {
	if !session.IsAdmin() {
		return false, model.ErrForbidden
	}
	if err := attendance.Validate([]model.AttendanceEvent{ev}); err != nil {
		return false, err
	}

	ev.IsCustom = true
	ev.IsSpecial = ev.Kind.IsSpecial()
	if ev.ChangeNote == "" {
		ev.ChangeNote = attendance.AddedNote(ev, s.loc)
	}

	added, err := s.mutate(ctx, personID, func(events []model.AttendanceEvent) ([]model.AttendanceEvent, bool) {
		if indexOf(events, ev) >= 0 {
			return events, false
		}
		return append(events, ev), true
	})
	s.logOutcome(ctx, "add event", personID, ev.Kind, added, err)
	return added, err
}

// UpdateEvent replaces the first event matching old's identity with next.
// When next carries no change note one is generated from the differences.
func (s *AttendanceService) UpdateEvent(ctx context.Context, session model.Session, personID string, old, next model.AttendanceEvent) (bool, error) {
	if !session.IsAdmin() {
		return false, model.ErrForbidden
	}
	if err := attendance.Validate([]model.AttendanceEvent{next}); err != nil {
		return false, err
	}

	updated, err := s.mutate(ctx, personID, func(events []model.AttendanceEvent) ([]model.AttendanceEvent, bool) {
		i := indexOf(events, old)
		if i < 0 {
			return events, false
		}
		replacement := next
		replacement.IsCustom = true
		replacement.IsSpecial = next.Kind.IsSpecial()
		if replacement.ChangeNote == "" {
			replacement.ChangeNote = attendance.EditNote(events[i], next, s.loc)
		}
		events[i] = replacement
		return events, true
	})
	s.logOutcome(ctx, "update event", personID, old.Kind, updated, err)
	return updated, err
}

// DeleteEvent removes the first event matching target's identity.
func (s *AttendanceService) DeleteEvent(ctx context.Context, session model.Session, personID string, target model.AttendanceEvent) (bool, error) {
	if !session.IsAdmin() {
		return false, model.ErrForbidden
	}

	deleted, err := s.mutate(ctx, personID, func(events []model.AttendanceEvent) ([]model.AttendanceEvent, bool) {
		i := indexOf(events, target)
		if i < 0 {
			return events, false
		}
		return append(events[:i], events[i+1:]...), true
	})
	s.logOutcome(ctx, "delete event", personID, target.Kind, deleted, err)
	return deleted, err
}

// DeleteDay removes every event whose local date key is dateKey.
func (s *AttendanceService) DeleteDay(ctx context.Context, session model.Session, personID, dateKey string) (bool, error) {
	if !session.IsAdmin() {
		return false, model.ErrForbidden
	}
	if _, err := attendance.ParseDateKey(dateKey, s.loc); err != nil {
		return false, err
	}

	deleted, err := s.mutate(ctx, personID, func(events []model.AttendanceEvent) ([]model.AttendanceEvent, bool) {
		kept := events[:0]
		for _, ev := range events {
			if attendance.DateKey(ev.Timestamp, s.loc) != dateKey {
				kept = append(kept, ev)
			}
		}
		return kept, len(kept) != len(events)
	})

	logger := log.Ctx(ctx)
	if err != nil {
		logger.Error().Err(err).Str("person_id", personID).Str("date", dateKey).Msg("Failed to delete day")
	} else {
		logger.Info().Str("person_id", personID).Str("date", dateKey).Bool("matched", deleted).Msg("Delete day")
	}
	return deleted, err
}

// AddSpecialRange adds one all-day Vacation or Sick event per calendar day
// from..to inclusive, at local midnight. Days that already carry the same
// entry are skipped. It returns the number of events added.
func (s *AttendanceService) AddSpecialRange(ctx context.Context, session model.Session, personID string, kind model.Kind, from, to time.Time) (int, error) {
	if !session.IsAdmin() {
		return 0, model.ErrForbidden
	}
	if !kind.IsSpecial() {
		return 0, &model.MalformedInputError{Index: -1, Field: "type", Value: kind.String(), Reason: "range entries are vacation or sick"}
	}

	start := midnight(from, s.loc)
	end := midnight(to, s.loc)
	if end.Before(start) {
		return 0, &model.MalformedInputError{Index: -1, Field: "to", Value: attendance.DateKey(to, s.loc), Reason: "range ends before it starts"}
	}

	var days []model.AttendanceEvent
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(days) == maxSpecialRangeDays {
			return 0, &model.MalformedInputError{Index: -1, Field: "to", Value: attendance.DateKey(to, s.loc), Reason: "range is longer than a year"}
		}
		days = append(days, model.AttendanceEvent{Kind: kind, Timestamp: d, IsSpecial: true, AllDay: true})
	}

	added := 0
	_, err := s.mutate(ctx, personID, func(events []model.AttendanceEvent) ([]model.AttendanceEvent, bool) {
		added = 0
		for _, ev := range days {
			if indexOf(events, ev) < 0 {
				events = append(events, ev)
				added++
			}
		}
		return events, added > 0
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("person_id", personID).Stringer("kind", kind).Msg("Failed to add special range")
		return 0, err
	}
	log.Ctx(ctx).Info().Str("person_id", personID).Stringer("kind", kind).Int("added", added).Msg("Special range added")
	return added, nil
}

// Rates returns the stored rates, or the configured defaults when none are stored yet.
func (s *AttendanceService) Rates(ctx context.Context) (model.RateTable, error) {
	return loadRates(ctx, s.repo, s.defaults)
}

func (s *AttendanceService) PutRates(ctx context.Context, session model.Session, rates model.RateTable) error {
	if !session.IsAdmin() {
		return model.ErrForbidden
	}
	if err := rates.Validate(); err != nil {
		return err
	}
	if err := s.repo.PutRates(ctx, rates); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("weekday", rates.WeekdayRate.String()).Str("weekend", rates.WeekendRate.String()).Msg("Rates updated")
	return nil
}

func (s *AttendanceService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *AttendanceService) User(ctx context.Context, id string) (model.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *AttendanceService) AddUser(ctx context.Context, session model.Session, name string) (model.User, error) {
	if !session.IsAdmin() {
		return model.User{}, model.ErrForbidden
	}
	if name == "" {
		return model.User{}, &model.MalformedInputError{Index: -1, Field: "name", Reason: "name is required"}
	}
	user := model.User{ID: uuid.NewString(), Name: name}
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return model.User{}, err
	}
	log.Ctx(ctx).Info().Str("person_id", user.ID).Msg("User added")
	return user, nil
}

func (s *AttendanceService) RenameUser(ctx context.Context, session model.Session, id, name string) (model.User, error) {
	if !session.IsAdmin() {
		return model.User{}, model.ErrForbidden
	}
	if name == "" {
		return model.User{}, &model.MalformedInputError{Index: -1, Field: "name", Reason: "name is required"}
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	user.Name = name
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// RemoveUser deletes the user entry. Recorded events are kept.
func (s *AttendanceService) RemoveUser(ctx context.Context, session model.Session, id string) (bool, error) {
	if !session.IsAdmin() {
		return false, model.ErrForbidden
	}
	return s.repo.DeleteUser(ctx, id)
}

// mutate runs one read-modify-write cycle guarded by the stored version.
// A concurrent writer makes it fail with model.ErrConcurrentModification.
func (s *AttendanceService) mutate(ctx context.Context, personID string, fn func([]model.AttendanceEvent) ([]model.AttendanceEvent, bool)) (bool, error) {
	events, version, err := s.repo.GetEvents(ctx, personID)
	if err != nil {
		return false, err
	}
	next, changed := fn(events)
	if !changed {
		return false, nil
	}
	if _, err := s.repo.PutEvents(ctx, personID, next, version); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AttendanceService) logOutcome(ctx context.Context, op, personID string, kind model.Kind, matched bool, err error) {
	logger := log.Ctx(ctx)
	switch {
	case errors.Is(err, model.ErrConcurrentModification):
		logger.Warn().Str("person_id", personID).Stringer("kind", kind).Msgf("Conflict on %s", op)
	case err != nil:
		logger.Error().Err(err).Str("person_id", personID).Stringer("kind", kind).Msgf("Failed to %s", op)
	default:
		logger.Info().Str("person_id", personID).Stringer("kind", kind).Bool("matched", matched).Msg(op)
	}
}

func indexOf(events []model.AttendanceEvent, target model.AttendanceEvent) int {
	for i, ev := range events {
		if ev.SameIdentity(target) {
			return i
		}
	}
	return -1
}

func midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func loadRates(ctx context.Context, store repository.SettingsStore, defaults model.RateTable) (model.RateTable, error) {
	rates, err := store.GetRates(ctx)
	if errors.Is(err, model.ErrNotFound) {
		return defaults, nil
	}
	return rates, err
}
