// Package logger is the structured logger used by the command dispatcher,
// the profile service and the storage layer. Entries are written as JSON
// lines or as single human-readable text lines.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVELS AND FORMATS
// ══════════════════════════════════════════════════════════════════════════════

// Level is an entry's severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps debug, info, warn (or warning) and error to a Level.
// Anything else is info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format selects how entries are rendered.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat returns FormatText for "text" in any case, FormatJSON otherwise.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatText)) {
		return FormatText
	}
	return FormatJSON
}

// ══════════════════════════════════════════════════════════════════════════════
// FIELDS
// ══════════════════════════════════════════════════════════════════════════════

// Field is one key-value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field    { return Field{key, value} }
func Int(key string, value int) Field   { return Field{key, value} }
func Bool(key string, value bool) Field { return Field{key, value} }
func Any(key string, value any) Field   { return Field{key, value} }

// Duration renders d with time.Duration.String.
func Duration(key string, d time.Duration) Field { return Field{key, d.String()} }

// Err records err's message under "error". A nil error records null.
func Err(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}

// JobQuest field keys.
func ProfileID(id string) Field     { return String("profile_id", id) }
func Command(name string) Field     { return String("command", name) }
func EventCount(n int) Field        { return Int("event_count", n) }
func XPAmount(xp int) Field         { return Int("xp_amount", xp) }
func Component(name string) Field   { return String("component", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }

// ══════════════════════════════════════════════════════════════════════════════
// LOGGER
// ══════════════════════════════════════════════════════════════════════════════

// LogEntry is the JSON shape of one line.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Caller    string         `json:"caller,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Options configures New.
type Options struct {
	Output     io.Writer
	Level      Level
	Format     Format
	AddCaller  bool
	CallerSkip int
}

// DefaultOptions logs info and above as JSON to stderr.
func DefaultOptions() Options {
	return Options{Output: os.Stderr, Level: LevelInfo, Format: FormatJSON}
}

// Logger writes entries at or above its level. Loggers derived with With
// share the parent's writer and lock.
type Logger struct {
	mu     *sync.Mutex
	opts   Options
	fields []Field
	now    func() time.Time
}

// New creates a Logger. A nil Output means stderr.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	return &Logger{mu: &sync.Mutex{}, opts: opts, now: time.Now}
}

// Default returns a logger built from DefaultOptions.
func Default() *Logger {
	return New(DefaultOptions())
}

// With returns a child logger that adds fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	child := *l
	child.fields = append(append(make([]Field, 0, len(l.fields)+len(fields)), l.fields...), fields...)
	return &child
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []Field) {
	if level < l.opts.Level {
		return
	}

	entry := LogEntry{
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
	}
	if l.opts.AddCaller {
		// log <- Info/Warn/... <- caller
		if _, file, line, ok := runtime.Caller(2 + l.opts.CallerSkip); ok {
			entry.Caller = fmt.Sprintf("%s:%d", file[strings.LastIndexByte(file, '/')+1:], line)
		}
	}
	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, f := range l.fields {
			entry.Fields[f.Key] = f.Value
		}
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	var line []byte
	if l.opts.Format == FormatText {
		line = renderText(entry)
	} else {
		var err error
		if line, err = json.Marshal(entry); err != nil {
			line = fmt.Appendf(nil, "%s %s %s (unencodable fields: %v)", entry.Timestamp, entry.Level, msg, err)
		}
		line = append(line, '\n')
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.opts.Output.Write(line)
}

// renderText prints "ts LEVEL msg k=v ..." with keys sorted.
func renderText(e LogEntry) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", e.Timestamp, e.Level, e.Message)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	if e.Caller != "" {
		b.WriteString(" caller=" + e.Caller)
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
