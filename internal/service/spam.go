package service

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`(?i)https?://`)

// SpamFilter is the heuristic content check run after the honeypot and
// CAPTCHA steps.  It catches link dumps and canned marketing copy; it is
// not meant to be exhaustive.
type SpamFilter struct {
	MaxURLs int
	Phrases []string
}

// DefaultSpamFilter rejects more than two links or either marketing phrase.
func DefaultSpamFilter() SpamFilter {
	return SpamFilter{MaxURLs: 2, Phrases: []string{"click here", "buy now"}}
}

// IsSpam reports whether message trips a heuristic.
func (f SpamFilter) IsSpam(message string) bool {
	if len(urlPattern.FindAllStringIndex(message, -1)) > f.MaxURLs {
		return true
	}
	lower := strings.ToLower(message)
	for _, p := range f.Phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// HoneypotTripped reports whether the hidden form field was filled in.
// Whitespace counts; people never see the field.
func HoneypotTripped(value string) bool {
	return value != ""
}
