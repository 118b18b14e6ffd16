package whatsapp

import (
	"strings"
	"unicode"
)

const brazilCountryCode = "55"

// DigitsOnly strips every non-digit rune.
func DigitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhoneForWaba returns the number as digits with the Brazilian country
// code prefixed exactly once: 55 is prepended only when the digits do not
// already start with it, so re-applying it changes nothing. Numbers from area
// code 55 must therefore be stored with the country code.
func FormatPhoneForWaba(raw string) string {
	digits := DigitsOnly(raw)
	if digits == "" || strings.HasPrefix(digits, brazilCountryCode) {
		return digits
	}
	return brazilCountryCode + digits
}

// FormatPhoneForMeta formats a recipient for the Meta Cloud API, which takes
// the same digit-only E.164 form without the plus sign.
func FormatPhoneForMeta(raw string) string {
	return FormatPhoneForWaba(raw)
}

// HasPhone reports whether raw carries enough digits to be dialled.
func HasPhone(raw string) bool {
	return len(DigitsOnly(raw)) >= 10
}
