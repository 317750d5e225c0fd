// Package phone validates visitor phone numbers and formats Algerian
// numbers for deep links.
package phone

import (
	"strings"
	"unicode"
)

// MinDigits is the minimum number of digits a usable phone number carries.
const MinDigits = 10

// CountryCode is Algeria's calling code.
const CountryCode = "213"

// Digits strips everything but ASCII digits.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether raw has at least MinDigits digits once separators
// are removed. "0550-123-456" is valid, "12345" is not.
func Valid(raw string) bool {
	return len(Digits(raw)) >= MinDigits
}

// Normalize returns the digits of raw, or "" when raw is not Valid.
func Normalize(raw string) string {
	d := Digits(raw)
	if len(d) < MinDigits {
		return ""
	}
	return d
}

// International rewrites a national number to its E.164 digits without the
// plus sign: "0550123456" becomes "213550123456". Numbers already starting
// with 213 or 00213 are kept.
func International(raw string) string {
	d := Digits(raw)
	switch {
	case strings.HasPrefix(d, "00"+CountryCode):
		return d[2:]
	case strings.HasPrefix(d, CountryCode) && len(d) > 10:
		return d
	case strings.HasPrefix(d, "0"):
		return CountryCode + d[1:]
	default:
		return d
	}
}

// Method is a way of reaching a donor.
type Method string

const (
	MethodWhatsApp Method = "whatsapp"
	MethodTelegram Method = "telegram"
	MethodSMS      Method = "sms"
	MethodCall     Method = "tel"
)

// ParseMethod accepts the method names used by clients. ok is false for an
// empty or unknown value.
func ParseMethod(raw string) (Method, bool) {
	switch strings.ToLower(strings.TrimFunc(raw, unicode.IsSpace)) {
	case "whatsapp", "wa":
		return MethodWhatsApp, true
	case "telegram", "tg":
		return MethodTelegram, true
	case "sms", "message":
		return MethodSMS, true
	case "tel", "call", "phone":
		return MethodCall, true
	default:
		return "", false
	}
}

// Link builds the deep link for contacting number with method.
func Link(method Method, number string) string {
	intl := International(number)
	switch method {
	case MethodWhatsApp:
		return "https://wa.me/" + intl
	case MethodTelegram:
		return "https://t.me/+" + intl
	case MethodSMS:
		return "sms:+" + intl
	default:
		return "tel:+" + intl
	}
}
