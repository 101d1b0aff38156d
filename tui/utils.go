package tui

import (
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// truncate shortens s to maxLen bytes, ending in "..." when cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// formatListDate shows the time for today's messages and the day otherwise.
func formatListDate(t, now time.Time) string {
	if t.IsZero() {
		return "???"
	}
	t, now = t.Local(), now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan02")
}

// senderName is the display name of a From header, or the address when
// there is none.
func senderName(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		if addr.Name != "" {
			return addr.Name
		}
		return addr.Address
	}
	if idx := strings.Index(from, "<"); idx > 0 {
		return strings.TrimSpace(from[:idx])
	}
	return strings.TrimSpace(from)
}

// senderAddress is the bare address of a From header.
func senderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	from = strings.TrimSpace(from)
	if i, j := strings.LastIndex(from, "<"), strings.LastIndex(from, ">"); i >= 0 && j > i {
		from = from[i+1 : j]
	}
	return strings.ToLower(strings.TrimSpace(from))
}
