package moderation

import (
	"testing"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanBody(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain br", input: "Trying to spam <br> http://éxample.com", expected: "Trying to spam \n http://éxample.com"},
		{name: "self closing", input: "a<br/>b<BR />c", expected: "a\nb\nc"},
		{name: "untouched", input: "nothing to see", expected: "nothing to see"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanBody(tc.input))
		})
	}
}

func TestContainsLink(t *testing.T) {
	positives := []string{
		"url http://example.com",
		"address 127.0.0.1",
		"url https://example.com/foo/bar",
		"host example.org",
		"quote example%2eorg",
		"IDNA www.xn--ie7ccp.xxx",
		"visit пример.испытание today",
	}
	for _, body := range positives {
		assert.True(t, ContainsLink(body), "expected %q to be detected", body)
	}

	negatives := []string{
		"Great add-on, works as expected.",
		"version 1.2 is better than 1.1",
		"Çà marche très bien.",
		"",
	}
	for _, body := range negatives {
		assert.False(t, ContainsLink(body), "expected %q not to be detected", body)
	}
}

func TestNormalizeFlag(t *testing.T) {
	reason, note := NormalizeFlag(domain.FlagSpam, "  This is my nøte. ")
	assert.Equal(t, domain.FlagOther, reason)
	assert.Equal(t, "This is my nøte.", note)

	reason, note = NormalizeFlag(domain.FlagLanguage, "   ")
	assert.Equal(t, domain.FlagLanguage, reason)
	assert.Empty(t, note)

	reason, _ = NormalizeFlag("lol", "explained")
	assert.Equal(t, domain.FlagOther, reason)
}

func TestValidateFlag(t *testing.T) {
	testCases := []struct {
		name        string
		reason      domain.FlagReason
		note        string
		expectField string
		expectError bool
	}{
		{name: "Success: spam", reason: domain.FlagSpam},
		{name: "Success: other with note", reason: domain.FlagOther, note: "xxx"},
		{name: "Failure: missing", reason: "", expectError: true, expectField: "flag"},
		{name: "Failure: unknown", reason: "lol", expectError: true, expectField: "flag"},
		{name: "Failure: other without note", reason: domain.FlagOther, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFlag(tc.reason, tc.note)
			if !tc.expectError {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.expectField, verr.Field)
		})
	}
}
