package main

import (
	"context"

	"github.com/sigreer/amdem/internal/db"
	"github.com/sigreer/amdem/internal/em"
)

// journalRecorder stores LED update requests in the event journal
type journalRecorder struct {
	db *db.DB
}

func (j journalRecorder) Record(_ context.Context, ev em.Event) error {
	return j.db.RecordLEDEvent(toLEDEvent(ev))
}

func toLEDEvent(ev em.Event) *db.LEDEvent {
	rec := &db.LEDEvent{
		RequestID:       ev.RequestID,
		ControllerPath:  ev.ControllerPath,
		Pattern:         ev.Pattern.String(),
		PreviousPattern: ev.PreviousPattern.String(),
		Platform:        ev.Platform.String(),
		Interface:       ev.Interface.String(),
		Result:          db.ResultApplied,
		Timestamp:       ev.Timestamp,
	}
	switch {
	case ev.Suppressed:
		rec.Result = db.ResultSuppressed
	case ev.Err != nil:
		rec.Result = db.ResultFailed
		rec.Error = ev.Err.Error()
	}
	return rec
}
