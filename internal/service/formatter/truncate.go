package formatter

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// Truncate bounds message to limit characters. Longer messages are cut at the
// last space when it falls in the final 20% of the kept text, otherwise at the
// hard boundary, and end with an ellipsis.
func Truncate(message string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(message)
	if len(runes) <= limit {
		return message
	}

	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}

	cut := limit - len(ellipsis)
	kept := runes[:cut]

	if space := lastSpace(kept); space > 0 && float64(space) >= 0.8*float64(cut) {
		if trimmed := strings.TrimRight(string(kept[:space]), " ,;"); trimmed != "" {
			return trimmed + ellipsis
		}
	}

	return string(kept) + ellipsis
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// budget accumulates reply fragments in priority order without exceeding limit.
type budget struct {
	limit int
	used  int
	b     strings.Builder
}

func newBudget(limit int) *budget {
	return &budget{limit: limit}
}

// must appends s unconditionally; the final truncation pass keeps the ceiling.
func (r *budget) must(s string) {
	r.b.WriteString(s)
	r.used += utf8.RuneCountInString(s)
}

func (r *budget) fits(s string) bool {
	return r.used+utf8.RuneCountInString(s) <= r.limit
}

// try appends s only when it fits in the remaining budget.
func (r *budget) try(s string) bool {
	if !r.fits(s) {
		return false
	}
	r.must(s)
	return true
}

func (r *budget) String() string {
	return Truncate(r.b.String(), r.limit)
}
