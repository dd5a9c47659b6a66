package service

import (
	"strings"

	"github.com/crisvalt/billrelay-go/internal/domain"
)

// truncate bounds attacker-influenced string fields by rune count.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// splitItems parses the pipe-separated item list carried in webhook notes.
func splitItems(raw string) []string {
	parts := strings.Split(raw, "|")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			items = append(items, truncate(p, domain.MaxTokenItemLen))
		}
	}
	return items
}
