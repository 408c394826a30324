// Package extractors provides the signal extractor implementations for the
// evaluation engine: deterministic keyword coverage, textual similarity with
// plagiarism detection, and the AI-judged rubric signal.
package extractors

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

// Input validation limits shared by all extractors.
const (
	// MaxPeerAnswers caps the peer snapshot size for similarity comparison.
	MaxPeerAnswers = 10000

	// MaxAnswerLength caps any answer or reference text (1MB).
	MaxAnswerLength = 1 * 1024 * 1024
)

// Common errors returned by extractor constructors and Extract calls.
var (
	// ErrEmptyExtractorName is returned when creating an extractor with an
	// empty name.
	ErrEmptyExtractorName = errors.New("extractor name cannot be empty")

	// ErrAnswerTooLong is returned when an answer exceeds MaxAnswerLength.
	ErrAnswerTooLong = errors.New("answer content exceeds maximum length")

	// ErrTooManyPeers is returned when the peer snapshot exceeds
	// MaxPeerAnswers.
	ErrTooManyPeers = errors.New("too many peer answers")
)

// Package-level validator for configuration structs.
var validate = validator.New()

// foldCaser is a package-level Unicode case folder.
// This avoids creating a new caser per string preparation.
var foldCaser = cases.Fold()

// tokenize splits text into case-folded tokens. Letters, digits, and
// underscores are token characters; everything else separates tokens, so an
// Excel fragment like "=VLOOKUP(A2,Table1,3)" yields "vlookup", "a2",
// "table1", "3".
func tokenize(s string) []string {
	folded := foldCaser.String(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// stemToken strips common English suffixes so "filtering", "filtered", and
// "filters" all normalize to "filter". The guard on remaining length keeps
// short domain tokens like "sum" and "rows" usable.
func stemToken(tok string) string {
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if strings.HasSuffix(tok, suffix) && len(tok)-len(suffix) >= 3 {
			return tok[:len(tok)-len(suffix)]
		}
	}
	return tok
}

// stemmedSet builds a lookup set of stemmed tokens.
func stemmedSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[stemToken(tok)] = struct{}{}
	}
	return set
}
