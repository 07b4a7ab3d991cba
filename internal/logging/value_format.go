package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// attrString renders a value without quoting, for subject fields such as the
// component or item id.
func attrString(v slog.Value) string {
	return rawValue(v.Resolve())
}

// formatValue renders a value for key=value output, quoting strings that
// would otherwise be ambiguous.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	s := rawValue(v)
	switch v.Kind() {
	case slog.KindString, slog.KindAny:
		if needsQuotes(s) {
			return strconv.Quote(s)
		}
	}
	return s
}

func rawValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().In(time.Local).Format(consoleTimestampLayout)
	case slog.KindAny:
		switch val := v.Any().(type) {
		case error:
			return val.Error()
		case fmt.Stringer:
			return val.String()
		default:
			return fmt.Sprint(val)
		}
	default:
		// Bool, ints, durations and strings format correctly via String.
		return v.String()
	}
}

func needsQuotes(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r) || r == '=' || r == '"'
	})
}
