package db

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordLEDEvent stores an LED update request. A zero timestamp means now.
func (d *DB) RecordLEDEvent(ev *LEDEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	res, err := d.conn.Exec(`
		INSERT INTO led_events (request_id, controller_path, pattern, previous_pattern, platform, interface, result, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.RequestID, ev.ControllerPath, ev.Pattern, ev.PreviousPattern,
		ev.Platform, ev.Interface, ev.Result, ev.Error, ev.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to record led event: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		ev.ID = id
	}
	return nil
}

// GetRecentLEDEvents returns the most recent events across all controllers
func (d *DB) GetRecentLEDEvents(limit int) ([]*LEDEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, request_id, controller_path, pattern, previous_pattern, platform, interface, result, error, timestamp
		FROM led_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent led events: %w", err)
	}
	defer rows.Close()

	return scanLEDEvents(rows)
}

// GetControllerLEDEvents returns events for a single controller path
func (d *DB) GetControllerLEDEvents(controllerPath string, limit int) ([]*LEDEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, request_id, controller_path, pattern, previous_pattern, platform, interface, result, error, timestamp
		FROM led_events
		WHERE controller_path = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, controllerPath, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query controller led events: %w", err)
	}
	defer rows.Close()

	return scanLEDEvents(rows)
}

func scanLEDEvents(rows *sql.Rows) ([]*LEDEvent, error) {
	var events []*LEDEvent
	for rows.Next() {
		var event LEDEvent
		var previous, platform, iface, errText sql.NullString

		err := rows.Scan(
			&event.ID, &event.RequestID, &event.ControllerPath, &event.Pattern,
			&previous, &platform, &iface, &event.Result, &errText, &event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan led event: %w", err)
		}

		event.PreviousPattern = previous.String
		event.Platform = platform.String
		event.Interface = iface.String
		event.Error = errText.String

		events = append(events, &event)
	}

	return events, rows.Err()
}
