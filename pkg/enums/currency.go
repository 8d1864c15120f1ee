package enums

import (
	"fmt"
	"strings"
)

// Currency is the lowercase ISO 4217 code carried on the payment
// confirmation. The confirmation is authoritative; no conversion happens
// here.
type Currency string

const (
	CurrencyINR Currency = "inr"
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
	CurrencyGBP Currency = "gbp"
)

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// ParseCurrency normalizes raw gateway input into a Currency. Any
// three-letter code is accepted; casing is normalized.
func ParseCurrency(value string) (Currency, error) {
	code := strings.ToLower(strings.TrimSpace(value))
	if len(code) != 3 {
		return "", fmt.Errorf("invalid currency code %q", value)
	}
	return Currency(code), nil
}
