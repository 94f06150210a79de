// Package money converts between major-unit decimal strings and minor-unit
// integer strings. Amounts never pass through floating point: parsing,
// scaling and rounding are all done on digit strings, so "95.5" JOD is
// exactly 95500 fils every time.
package money

import (
	"fmt"
	"regexp"
	"strings"
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// minorExponents is a closed table. Expanding it is a code change on
// purpose: defaulting an unanticipated 0- or 3-decimal currency to 2 would
// silently mis-price everything in it.
var minorExponents = map[string]int{
	"JOD": 3,
}

const defaultExponent = 2

// NormalizeCurrency upper-cases and validates a 3-letter currency code.
// Returns "" for anything that is not exactly three ASCII letters.
func NormalizeCurrency(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !currencyRe.MatchString(c) {
		return ""
	}
	return c
}

// MinorUnitExponent returns the number of decimal digits the currency's
// minor unit carries (JOD=3, everything else 2).
func MinorUnitExponent(currency string) int {
	if exp, ok := minorExponents[NormalizeCurrency(currency)]; ok {
		return exp
	}
	return defaultExponent
}

// ToMinorUnits converts a major-unit decimal string ("95.5") into a
// minor-unit integer string ("95500" for JOD). The fractional part is
// right-padded to the currency exponent; excess digits are an error rather
// than a silent truncation.
func ToMinorUnits(major, currency string) (string, error) {
	cur := NormalizeCurrency(currency)
	if cur == "" {
		return "", fmt.Errorf("money: invalid currency %q", currency)
	}

	s := strings.TrimSpace(major)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || !allDigits(whole) {
		return "", fmt.Errorf("money: malformed amount %q", major)
	}
	if hasFrac && (frac == "" || !allDigits(frac)) {
		return "", fmt.Errorf("money: malformed amount %q", major)
	}

	exp := MinorUnitExponent(cur)
	if len(frac) > exp {
		return "", fmt.Errorf("money: amount %q has more than %d decimal places for %s", major, exp, cur)
	}
	frac = frac + strings.Repeat("0", exp-len(frac))

	out := strings.TrimLeft(whole+frac, "0")
	if out == "" {
		return "0", nil
	}
	if neg {
		out = "-" + out
	}
	return out, nil
}

// MinorToMajorDisplay renders a minor-unit integer string as a major-unit
// decimal with the requested number of display decimals ("95500" JOD, 2 →
// "95.50"). Display only; the minor-unit integer stays the source of truth.
func MinorToMajorDisplay(minor, currency string, displayDecimals int) (string, error) {
	cur := NormalizeCurrency(currency)
	if cur == "" {
		return "", fmt.Errorf("money: invalid currency %q", currency)
	}
	if displayDecimals < 0 {
		displayDecimals = 0
	}

	s := strings.TrimSpace(minor)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" || !allDigits(s) {
		return "", fmt.Errorf("money: malformed minor amount %q", minor)
	}

	exp := MinorUnitExponent(cur)
	if len(s) <= exp {
		s = strings.Repeat("0", exp-len(s)+1) + s
	}
	whole := s[:len(s)-exp]
	frac := s[len(s)-exp:]

	switch {
	case displayDecimals < len(frac):
		var carry bool
		frac, carry = roundDigits(frac, displayDecimals)
		if carry {
			whole = incrementDigits(whole)
		}
	case displayDecimals > len(frac):
		frac = frac + strings.Repeat("0", displayDecimals-len(frac))
	}

	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}

	out := whole
	if displayDecimals > 0 {
		out = whole + "." + frac
	}
	if neg && strings.Trim(out, "0.") != "" {
		out = "-" + out
	}
	return out, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// roundDigits truncates a digit string to n digits, rounding half up.
// The second return reports a carry out of the most significant digit.
func roundDigits(digits string, n int) (string, bool) {
	kept := digits[:n]
	if digits[n] < '5' {
		return kept, false
	}
	rounded := incrementDigits(kept)
	if len(rounded) > len(kept) {
		// all nines rolled over; drop the leading 1 and carry
		return rounded[1:], true
	}
	return rounded, false
}

func incrementDigits(digits string) string {
	if digits == "" {
		return "1"
	}
	b := []byte(digits)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
