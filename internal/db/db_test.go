package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "nested", "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestNewCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	d, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, d.Path())
	require.NoError(t, d.Close())

	// reopening must not re-run migrations
	d, err = New(path)
	require.NoError(t, err)
	defer d.Close()

	var count int
	require.NoError(t, d.conn.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRecordAndQueryLEDEvents(t *testing.T) {
	d := openTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []*LEDEvent{
		{RequestID: "r1", ControllerPath: "/sys/a", Pattern: "locate", PreviousPattern: "normal",
			Platform: "ethanol-x", Interface: "ipmi", Result: ResultApplied, Timestamp: base},
		{RequestID: "r2", ControllerPath: "/sys/b", Pattern: "failure",
			Platform: "ethanol-x", Interface: "ipmi", Result: ResultFailed, Error: "bus timeout",
			Timestamp: base.Add(time.Minute)},
		{RequestID: "r3", ControllerPath: "/sys/a", Pattern: "locate", PreviousPattern: "locate",
			Result: ResultSuppressed, Timestamp: base.Add(2 * time.Minute)},
	}
	for _, ev := range events {
		require.NoError(t, d.RecordLEDEvent(ev))
		assert.NotZero(t, ev.ID)
	}

	recent, err := d.GetRecentLEDEvents(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r3", recent[0].RequestID)
	assert.Equal(t, "r2", recent[1].RequestID)
	assert.Equal(t, "bus timeout", recent[1].Error)
	assert.True(t, base.Add(time.Minute).Equal(recent[1].Timestamp))

	forA, err := d.GetControllerLEDEvents("/sys/a", 0)
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, ResultSuppressed, forA[0].Result)
	assert.Equal(t, "normal", forA[1].PreviousPattern)
	assert.Equal(t, "ipmi", forA[1].Interface)
	assert.Empty(t, forA[0].Platform)
}

func TestRecordLEDEventDefaultsTimestamp(t *testing.T) {
	d := openTestDB(t)

	ev := &LEDEvent{RequestID: "r1", ControllerPath: "/sys/a", Pattern: "normal", Result: ResultApplied}
	require.NoError(t, d.RecordLEDEvent(ev))
	assert.WithinDuration(t, time.Now(), ev.Timestamp, time.Minute)
}

func TestRecordLEDEventDuplicateRequest(t *testing.T) {
	d := openTestDB(t)

	ev := &LEDEvent{RequestID: "dup", ControllerPath: "/sys/a", Pattern: "normal", Result: ResultApplied}
	require.NoError(t, d.RecordLEDEvent(ev))
	assert.Error(t, d.RecordLEDEvent(&LEDEvent{RequestID: "dup", ControllerPath: "/sys/a", Pattern: "normal", Result: ResultApplied}))
}
