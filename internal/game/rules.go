// internal/game/rules.go
//
// Chain rules shared by both sides:
//   - Normalize: trim and Unicode lower-case before anything touches the chain.
//   - RequiredPrefix: last two characters of the previous word.
//   - Validate: length, prefix, uniqueness (first failure wins).

package game

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PrefixLength is how many trailing characters of a word the next word must start with.
const PrefixLength = 2

// Reason is a stable code for why a word or a half-turn was refused.
type Reason string

const (
	ReasonEmptyWord     Reason = "empty_word"
	ReasonTooShort      Reason = "too_short"
	ReasonWrongPrefix   Reason = "wrong_prefix"
	ReasonDuplicateWord Reason = "duplicate_word"

	// Half-turn reasons that never come from Validate.
	ReasonProviderEmpty Reason = "provider_empty"
	ReasonProviderFault Reason = "provider_fault"
	ReasonPassed        Reason = "passed"
)

// RejectError is returned for a word that breaks a chain rule.
// Compare with errors.Is against the Err* sentinels below.
type RejectError struct {
	Reason    Reason
	Word      string
	Prefix    string // set for ReasonWrongPrefix
	MinLength int    // set for ReasonTooShort
}

func (e *RejectError) Error() string {
	switch e.Reason {
	case ReasonEmptyWord:
		return "enter a word"
	case ReasonTooShort:
		if e.MinLength > 0 {
			return fmt.Sprintf("word must be at least %d letters long", e.MinLength)
		}
		return "word is too short"
	case ReasonWrongPrefix:
		if e.Prefix != "" {
			return fmt.Sprintf("word must start with '%s'", e.Prefix)
		}
		return "word does not continue the chain"
	case ReasonDuplicateWord:
		return "word has already been used"
	}
	return string(e.Reason)
}

// Is matches any RejectError with the same reason.
func (e *RejectError) Is(target error) bool {
	t, ok := target.(*RejectError)
	return ok && t.Reason == e.Reason
}

var (
	ErrEmptyWord     = &RejectError{Reason: ReasonEmptyWord}
	ErrTooShort      = &RejectError{Reason: ReasonTooShort}
	ErrWrongPrefix   = &RejectError{Reason: ReasonWrongPrefix}
	ErrDuplicateWord = &RejectError{Reason: ReasonDuplicateWord}

	ErrOpponentTurn  = errors.New("opponent is still thinking")
	ErrInvalidConfig = errors.New("invalid game config")
)

// Normalize trims surrounding space and lower-cases w.
func Normalize(w string) string {
	// cases.Caser is stateful, one per call.
	return cases.Lower(language.Und).String(strings.TrimSpace(w))
}

// RequiredPrefix returns the last PrefixLength characters of last.
// Words shorter than that are returned whole; "" yields "" (any word may open).
func RequiredPrefix(last string) string {
	if utf8.RuneCountInString(last) <= PrefixLength {
		return last
	}
	r := []rune(last)
	return string(r[len(r)-PrefixLength:])
}

// Validate checks a normalized word against a normalized chain.
// It returns a *RejectError describing the first rule broken, or nil.
func Validate(chain []string, word string, minLength int) error {
	if word == "" {
		return &RejectError{Reason: ReasonEmptyWord}
	}
	if utf8.RuneCountInString(word) < minLength {
		return &RejectError{Reason: ReasonTooShort, Word: word, MinLength: minLength}
	}
	if len(chain) > 0 {
		prefix := RequiredPrefix(chain[len(chain)-1])
		if !strings.HasPrefix(word, prefix) {
			return &RejectError{Reason: ReasonWrongPrefix, Word: word, Prefix: prefix}
		}
	}
	if slices.Contains(chain, word) {
		return &RejectError{Reason: ReasonDuplicateWord, Word: word}
	}
	return nil
}
