// Package logger provides the process-wide log/slog logger. Records are
// written one per line as a colored level tag, the sorted attributes in
// brackets and the message. Records below the configured level are
// discarded.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Severities accepted by SetLevel. LevelSilent discards every record.
const (
	LevelDebug  = slog.LevelDebug
	LevelInfo   = slog.LevelInfo
	LevelWarn   = slog.LevelWarn
	LevelError  = slog.LevelError
	LevelSilent = slog.Level(12)
)

// ParseLevel converts a level name such as "debug" or "warn" into a level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "", "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "none":
		return LevelSilent, nil
	default:
		return LevelWarn, fmt.Errorf("unknown log level %q", name)
	}
}

var levelColors = map[slog.Level]*color.Color{
	LevelDebug: color.New(color.FgHiBlack),
	LevelInfo:  color.New(color.FgBlue),
	LevelWarn:  color.New(color.FgYellow, color.Bold),
	LevelError: color.New(color.FgRed, color.Bold),
}

// sink is the destination shared by a handler and every handler derived from it.
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

// Handler is a slog.Handler writing console lines with colored level tags.
type Handler struct {
	sink   *sink
	level  slog.Leveler
	fields []string // formatted "key=value" attributes added through WithAttrs
	group  string
}

// NewHandler returns a handler writing records at or above level to out.
func NewHandler(out io.Writer, level slog.Leveler) *Handler {
	return &Handler{sink: &sink{out: out}, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]string, 0, len(h.fields)+r.NumAttrs())
	fields = append(fields, h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.group, a)
		return true
	})
	sort.Strings(fields)

	var b strings.Builder
	tag := fmt.Sprintf("%-5s", r.Level)
	if c, ok := levelColors[r.Level]; ok {
		tag = c.Sprint(tag)
	}
	b.WriteString(tag)
	if len(fields) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(fields, " "))
		b.WriteString("]")
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteByte('\n')

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	_, err := io.WriteString(h.sink.out, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = make([]string, 0, len(h.fields)+len(attrs))
	next.fields = append(next.fields, h.fields...)
	for _, a := range attrs {
		next.fields = appendAttr(next.fields, h.group, a)
	}
	return &next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = qualify(h.group, name)
	return &next
}

func appendAttr(fields []string, group string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	if a.Value.Kind() == slog.KindGroup {
		prefix := qualify(group, a.Key)
		for _, member := range a.Value.Group() {
			fields = appendAttr(fields, prefix, member)
		}
		return fields
	}
	return append(fields, qualify(group, a.Key)+"="+a.Value.String())
}

func qualify(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

var (
	level = new(slog.LevelVar)
	std   = &sink{out: os.Stderr}
	root  = slog.New(&Handler{sink: std, level: level})
)

func init() {
	level.Set(LevelWarn)
}

// Default returns the process-wide logger.
func Default() *slog.Logger {
	return root
}

// SetLevel sets the minimum level written by the process-wide logger.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// GetLevel returns the current minimum level.
func GetLevel() slog.Level {
	return level.Level()
}

// SetOutput redirects the process-wide logger to w.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out = w
}
