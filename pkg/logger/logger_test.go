package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelInfo}).With(Component("dispatcher"))

	l.Debug("hidden")
	l.Info("command applied", ProfileID("erik"), XPAmount(3), Err(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "command applied", entry.Message)
	assert.Equal(t, "dispatcher", entry.Fields["component"])
	assert.Equal(t, "erik", entry.Fields["profile_id"])
	assert.Equal(t, float64(3), entry.Fields["xp_amount"])
	assert.Equal(t, "boom", entry.Fields["error"])
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelDebug, Format: ParseFormat("TEXT")})

	l.Warn("already checked in", String("job_id", "job-1"), Command("checkin"))

	out := buf.String()
	assert.Contains(t, out, "WARN  already checked in")
	assert.Less(t, strings.Index(out, "command=checkin"), strings.Index(out, "job_id=job-1"))
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelError})

	l.Warn("dropped")
	assert.Empty(t, buf.String())

	l.Error("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLogger_WithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Options{Output: &buf, Format: FormatText})
	_ = parent.With(ProfileID("erik"))

	parent.Info("plain")
	assert.NotContains(t, buf.String(), "profile_id")
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Format: FormatText, AddCaller: true})
	l.Info("where")
	assert.Contains(t, buf.String(), "caller=logger_test.go:")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseFormat(" Text "))
	assert.Equal(t, FormatJSON, ParseFormat("yaml"))
	assert.Equal(t, "UNKNOWN", Level(9).String())
}
