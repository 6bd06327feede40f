package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetState(t *testing.T, buf *bytes.Buffer) {
	t.Helper()
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	output = buf
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	resetState(t, &buf)

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"amdipmi": "debug",
			"sysfs":   "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"amdipmi", true, true, true},
		{"sysfs", false, false, true},
		{"drive", false, true, true},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			h := GetLogger(tt.module).Handler()
			assert.Equal(t, tt.wantDebug, h.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.wantInfo, h.Enabled(ctx, slog.LevelInfo))
			assert.Equal(t, tt.wantWarn, h.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestInitializeRebuildsExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	resetState(t, &buf)

	Initialize(Config{Level: "info", Format: "text"})
	before := GetLogger("em")
	assert.False(t, before.Handler().Enabled(context.Background(), slog.LevelDebug))

	Initialize(Config{Level: "debug", Format: "text"})
	after := GetLogger("em")
	assert.True(t, after.Handler().Enabled(context.Background(), slog.LevelDebug))
}

func TestAutoFormatIsJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	resetState(t, &buf)

	Initialize(Config{Level: "info", Format: "auto"})
	GetLogger("drive").Info("drive located", "port", 19)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "drive located", rec["msg"])
	assert.Equal(t, "drive", rec["module"])
	assert.EqualValues(t, 19, rec["port"])
}

func TestParseLevel(t *testing.T) {
	level, ok := ParseLevel("WARNING")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, level)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
}

func TestAddAttrToFields(t *testing.T) {
	fields := make(map[string]string)
	addAttrToFields(fields, slog.Int("port", 10), nil)
	addAttrToFields(fields, slog.Group("drive", slog.String("class", "sata")), nil)
	addAttrToFields(fields, slog.Bool("enable", true), []string{"reg"})

	assert.Equal(t, "10", fields["PORT"])
	assert.Equal(t, "sata", fields["DRIVE_CLASS"])
	assert.Equal(t, "true", fields["REG_ENABLE"])
}
