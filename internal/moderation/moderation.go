// Package moderation holds the content rules applied to review bodies and
// flag submissions before they reach storage.
package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"golang.org/x/net/idna"
)

// SystemFlagNote is stored on the flag created when a body looks like it contains links.
const SystemFlagNote = "URLs"

const MaxNoteLength = 100

var (
	lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

	linkPattern = regexp.MustCompile(`(?i)(` +
		`://` + // protocols, e.g. http://
		`|\b(\d{1,3}\.){3}\d{1,3}\b` + // bare IPv4
		`|[0-9a-z\-%]+\.(com|net|org|me|ly|be|gy|gd|co|us|mobi|info|name|tk|in|ru|de|xxx|eu|edu|gov|uk|io|fr)\b` +
		`|%2e` + // percent-encoded dot
		`|xn--` + // punycode label
		`)`)
)

// CleanBody converts literal line-break markup into newline characters.
func CleanBody(body string) string {
	return lineBreakPattern.ReplaceAllString(body, "\n")
}

// ContainsLink reports whether the text matches any of the URL-like heuristics,
// including internationalized domain names written in their Unicode form.
func ContainsLink(text string) bool {
	if linkPattern.MatchString(text) {
		return true
	}

	for _, word := range strings.FieldsFunc(text, unicode.IsSpace) {
		if isUnicodeDomain(word) {
			return true
		}
	}

	return false
}

func isUnicodeDomain(word string) bool {
	word = strings.Trim(word, ".,;:!?()[]{}\"'")
	if !strings.Contains(word, ".") || isASCII(word) {
		return false
	}

	labels := strings.Split(word, ".")
	for _, l := range labels {
		if l == "" {
			return false
		}
	}

	ascii, err := idna.Lookup.ToASCII(word)
	if err != nil {
		return false
	}

	return strings.Contains(ascii, "xn--")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}

	return true
}

// NormalizeFlag coerces the reason to "other" whenever a note is present.
// It runs before ValidateFlag and never fails.
func NormalizeFlag(reason domain.FlagReason, note string) (domain.FlagReason, string) {
	note = strings.TrimSpace(note)
	if note != "" {
		return domain.FlagOther, note
	}

	return reason, note
}

// ValidateFlag checks an already normalized reason/note pair.
func ValidateFlag(reason domain.FlagReason, note string) error {
	if reason == "" {
		return apperrors.NewFieldError("flag", "This field is required.")
	}

	if !IsKnownReason(reason) {
		return apperrors.NewFieldError("flag",
			fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", reason))
	}

	if reason == domain.FlagOther && note == "" {
		return &apperrors.ValidationError{
			Message: `A short explanation must be provided when selecting "Other".`,
		}
	}

	if len([]rune(note)) > MaxNoteLength {
		return apperrors.NewFieldError("note",
			fmt.Sprintf("Ensure this field has no more than %d characters.", MaxNoteLength))
	}

	return nil
}

func IsKnownReason(reason domain.FlagReason) bool {
	switch reason {
	case domain.FlagSpam, domain.FlagLanguage, domain.FlagBugSupport, domain.FlagOther:
		return true
	}

	return false
}
