// Package engine decides whether the store chatbot should answer an
// incoming customer message. It is a pure decision layer: it never touches
// storage and never publishes anything itself.
package engine

import (
	"strconv"
	"strings"
	"time"

	"aurumstore/backend/chatbot/models"
)

// DecideReply evaluates a store's auto-reply configuration against an
// incoming customer message and returns the reply text, if any.
//
// Evaluation order:
//  1. nil or inactive config disables the bot entirely.
//  2. Outside the working-hours window the outside-hours message is
//     returned, even when a keyword would also match.
//  3. Within the window, keywords are scanned in configured order and the
//     first case-insensitive substring match wins.
//
// The same (cfg, text, now) always yields the same result.
func DecideReply(cfg *models.AutoReplyConfig, text string, now time.Time) (string, bool) {
	if cfg == nil || !cfg.IsActive {
		return "", false
	}

	// Hour-only comparison; the minute component is stored but deliberately
	// not compared, matching the platform's historical behavior. A window
	// that fails to parse never fires the outside-hours branch.
	hour := now.Hour()
	startHour, startOK := parseHour(cfg.HoursStart)
	endHour, endOK := parseHour(cfg.HoursEnd)
	if startOK && endOK && (hour < startHour || hour >= endHour) {
		return cfg.OutsideMessage, true
	}

	lower := strings.ToLower(text)
	for _, reply := range cfg.AutoReplies {
		if reply.Keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(reply.Keyword)) {
			return reply.Response, true
		}
	}

	return "", false
}

// parseHour extracts the hour component from an "HH:MM" string.
func parseHour(hhmm string) (int, bool) {
	h, _, _ := strings.Cut(hhmm, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
