package logging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const consoleTimestampLayout = "2006-01-02 15:04:05"

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
)

// field is a flattened attribute; nested groups become dotted keys.
type field struct {
	key   string
	value slog.Value
}

// prettyHandler renders a headline per record followed by one indented
// "key: value" line per attribute:
//
//	2024-01-01 12:00:00 INFO [workflow] Podcast #7 (narration) - synthesizing
//	    voice: Rachel
type prettyHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	color     bool

	prefix string
	fields []field
}

func newPrettyHandler(w io.Writer, lvl slog.Leveler, addSource, color bool) slog.Handler {
	return &prettyHandler{mu: new(sync.Mutex), w: w, level: lvl, addSource: addSource, color: color}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = h.flatten(append([]field(nil), h.fields...), h.prefix, attrs)
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := append([]field(nil), h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = h.flatten(fields, h.prefix, []slog.Attr{a})
		return true
	})
	fields = lastWins(fields)

	var component, itemID, stage string
	rest := fields[:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
		case FieldItemID:
			itemID = attrString(f.value)
		case FieldStage:
			stage = attrString(f.value)
		default:
			rest = append(rest, f)
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	style := levelStyleFor(r.Level)

	var b strings.Builder
	b.WriteString(h.paint(ansiDim, ts.Local().Format(consoleTimestampLayout)))
	b.WriteString(" " + h.paint(style.color, style.label))
	if component != "" {
		b.WriteString(" [" + component + "]")
	}
	if subject := subjectLine(itemID, stage); subject != "" {
		b.WriteString(" " + h.paint(ansiCyan, subject))
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(" - " + msg)
	if src := r.Source(); h.addSource && src != nil && src.File != "" {
		b.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
	}
	b.WriteByte('\n')
	for _, f := range rest {
		b.WriteString("    " + h.paint(ansiDim, f.key) + ": " + formatValue(f.value) + "\n")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *prettyHandler) flatten(dst []field, prefix string, attrs []slog.Attr) []field {
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		v := a.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			sub := prefix
			if a.Key != "" {
				sub = prefix + a.Key + "."
			}
			dst = h.flatten(dst, sub, v.Group())
			continue
		}
		dst = append(dst, field{key: prefix + a.Key, value: v})
	}
	return dst
}

func (h *prettyHandler) paint(code, text string) string {
	if !h.color || text == "" {
		return text
	}
	return code + text + ansiReset
}

// lastWins drops empty keys and keeps the first position of a repeated key
// with its latest value.
func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func subjectLine(itemID, stage string) string {
	itemID, stage = strings.TrimSpace(itemID), strings.TrimSpace(stage)
	if itemID == "" {
		return stage
	}
	if stage == "" {
		return "Podcast #" + itemID
	}
	return "Podcast #" + itemID + " (" + stage + ")"
}

type levelStyle struct{ label, color string }

func levelStyleFor(level slog.Level) levelStyle {
	switch {
	case level >= slog.LevelError:
		return levelStyle{"ERROR", ansiRed}
	case level >= slog.LevelWarn:
		return levelStyle{"WARN", ansiYellow}
	case level >= slog.LevelInfo:
		return levelStyle{"INFO", ansiBlue}
	default:
		return levelStyle{"DEBUG", ansiDim}
	}
}
