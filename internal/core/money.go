// Package core provides money parsing and handling utilities.
//
// Amounts are stored as the text the user typed. This file turns that text
// into decimals for totals without ever rejecting a stored record.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts amount text to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an optional
// leading currency symbol and surrounding whitespace. Negative values are
// allowed since the input form never forbade them.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("₹ 50")   -> 50
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "₹$€£ ")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// MustParseAmount is ParseAmount for literals in tests and seed data.
func MustParseAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}
