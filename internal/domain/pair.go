package domain

import (
	"regexp"

	"golang.org/x/text/currency"
)

type Pair string

const DefaultPair Pair = "USD/ARS"

var pairRe = regexp.MustCompile(`^[A-Z]{3}/[A-Z]{3}$`)

// ValidatePair reports whether p is BASE/QUOTE with two distinct ISO 4217 codes.
func ValidatePair(p string) bool {
	base, quote, ok := SplitPair(p)
	if !ok || base == quote {
		return false
	}
	if _, err := currency.ParseISO(base); err != nil {
		return false
	}
	_, err := currency.ParseISO(quote)
	return err == nil
}

// SplitPair returns the base and quote codes of a well-formed pair.
func SplitPair(p string) (base, quote string, ok bool) {
	if !pairRe.MatchString(p) {
		return "", "", false
	}
	return p[:3], p[4:], true
}

func (p Pair) Base() string {
	b, _, _ := SplitPair(string(p))
	return b
}

func (p Pair) Quote() string {
	_, q, _ := SplitPair(string(p))
	return q
}
