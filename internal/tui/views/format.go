package views

import (
	"strings"
	"time"
	"unicode/utf8"
)

// formatTimestamp renders a message time in the business timezone: clock
// time for today, month/day otherwise. loc may be nil (local time).
func formatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	now := time.Now().In(loc)
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}

// sanitizeForTerminal removes Unicode codepoints that break cell-width
// accounting in tcell/tview: skin tone modifiers (U+1F3FB..U+1F3FF), the
// Zero Width Joiner (U+200D), and variation selectors. Customer messages
// arrive with all of these.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}
