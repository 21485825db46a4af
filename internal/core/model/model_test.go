package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvents_StoredFormat(t *testing.T) {
	raw := []byte(`[
		{"type":"arrival","timestamp":"2025-03-10T08:00:00.000Z"},
		{"type":"vacation","timestamp":"2025-03-11T00:00:00Z","isSpecial":true,"allDay":true},
		{"type":"departure","timestamp":"2025-03-10T16:00:00Z","isCustom":true,"changeLog":"Time changed"}
	]`)

	events, err := model.DecodeEvents(raw)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, model.KindArrival, events[0].Kind)
	assert.True(t, events[0].Timestamp.Equal(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)))
	assert.True(t, events[1].AllDay)
	assert.True(t, events[1].IsSpecial)
	assert.Equal(t, "Time changed", events[2].ChangeNote)
}

func TestDecodeEvents_UnknownKind(t *testing.T) {
	_, err := model.DecodeEvents([]byte(`[{"type":"arrival","timestamp":"2025-03-10T08:00:00Z"},{"type":"lunch","timestamp":"2025-03-10T12:00:00Z"}]`))

	require.ErrorIs(t, err, model.ErrMalformedInput)
	var mErr *model.MalformedInputError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, 1, mErr.Index)
}

func TestDecodeEvents_BadTimestamp(t *testing.T) {
	_, err := model.DecodeEvents([]byte(`[{"type":"arrival","timestamp":"yesterday"}]`))
	assert.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestDecodeEvents_MissingFields(t *testing.T) {
	_, err := model.DecodeEvents([]byte(`[{"timestamp":"2025-03-10T08:00:00Z"}]`))
	assert.ErrorIs(t, err, model.ErrMalformedInput)

	_, err = model.DecodeEvents([]byte(`[{"type":"break"}]`))
	assert.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestDecodeEvents_Empty(t *testing.T) {
	events, err := model.DecodeEvents(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEncodeEvents_UsesWireNames(t *testing.T) {
	b, err := model.EncodeEvents([]model.AttendanceEvent{
		{Kind: model.KindSick, Timestamp: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), AllDay: true},
	})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "sick", decoded[0]["type"])
	assert.Equal(t, true, decoded[0]["allDay"])
	assert.NotContains(t, decoded[0], "changeLog")
}

func TestEncodeEvents_Nil(t *testing.T) {
	b, err := model.EncodeEvents(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestParseKind(t *testing.T) {
	k, err := model.ParseKind("Departure")
	require.NoError(t, err)
	assert.Equal(t, model.KindDeparture, k)

	_, err = model.ParseKind("")
	assert.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestRateTable_Validate(t *testing.T) {
	assert.NoError(t, model.NewRateTable(0, 250).Validate())
	assert.ErrorIs(t, model.NewRateTable(-1, 250).Validate(), model.ErrMalformedInput)
	assert.ErrorIs(t, model.NewRateTable(200, -0.5).Validate(), model.ErrMalformedInput)
}

func TestSession_CanActFor(t *testing.T) {
	admin := model.Session{Subject: "admin", Role: model.RoleAdmin}
	user := model.Session{Subject: "u1", Role: model.RoleUser}

	assert.True(t, admin.CanActFor("u1"))
	assert.True(t, user.CanActFor("u1"))
	assert.False(t, user.CanActFor("u2"))
	assert.False(t, model.Session{}.CanActFor(""))
}
