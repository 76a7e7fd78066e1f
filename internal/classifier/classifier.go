// Package classifier decides whether free text is worth capturing as a
// memory and assigns a category to captured text.
//
// The rules are fixed keyword and pattern families, not a model. Matching is
// case-insensitive throughout.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/recallhq/recall/internal/model"
)

// Capture length bounds, in characters.
const (
	MinCaptureLen = 10
	MaxCaptureLen = 500
)

// Bare acknowledgements are never captured. Exact whole-string match only.
var acknowledgements = map[string]bool{
	"ok":         true,
	"okay":       true,
	"yes":        true,
	"no":         true,
	"sure":       true,
	"thanks":     true,
	"thank you":  true,
	"got it":     true,
	"understood": true,
}

var (
	// Markup-like tag patterns are rejected as a prompt-injection guard.
	markupRe = regexp.MustCompile(`<[^>]+>`)

	preferenceRe = regexp.MustCompile(`(?i)\b(remember|prefer|hate|love|like|want|need|always|never|important)\b`)
	decisionRe   = regexp.MustCompile(`(?i)\b(decided|will use|going to|plan to)\b`)

	phoneRe        = regexp.MustCompile(`\+\d{10,}`)
	emailRe        = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)
	entityPhraseRe = regexp.MustCompile(`(?i)\b(my \w+ is|is called|named|works at|lives in)\b`)

	copulaRe = regexp.MustCompile(`(?i)\b(is|are|has|have|was|were)\b`)
)

// ShouldCapture reports whether text should be stored as a memory.
// Too-short, too-long, markup-bearing, and bare-acknowledgement text is
// rejected; otherwise text must match one of the preference, decision, or
// entity families.
func ShouldCapture(text string) bool {
	n := utf8.RuneCountInString(text)
	if n < MinCaptureLen || n > MaxCaptureLen {
		return false
	}
	if markupRe.MatchString(text) {
		return false
	}
	if acknowledgements[strings.ToLower(strings.TrimSpace(text))] {
		return false
	}
	return preferenceRe.MatchString(text) ||
		decisionRe.MatchString(text) ||
		matchesEntity(text)
}

// DetectCategory assigns a category to text. First matching rule wins, in
// fixed priority order: preference, decision, entity, then a generic
// copula-verb fact fallback.
func DetectCategory(text string) string {
	switch {
	case preferenceRe.MatchString(text):
		return model.CategoryPreference
	case decisionRe.MatchString(text):
		return model.CategoryDecision
	case matchesEntity(text):
		return model.CategoryEntity
	case copulaRe.MatchString(text):
		return model.CategoryFact
	default:
		return model.CategoryOther
	}
}

func matchesEntity(text string) bool {
	return phoneRe.MatchString(text) ||
		emailRe.MatchString(text) ||
		entityPhraseRe.MatchString(text)
}
