// Package core holds the ledger's domain types and validation rules.
//
// Money is an integer amount in the currency's minor unit. All arithmetic
// in the ledger happens on minor units; floating point appears only in the
// forecast projection, which is an estimate by nature.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a non-negative amount in minor currency units.
type Money struct {
	Units int64 `json:"units"`
}

func (m Money) Validate() error {
	if m.Units <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Units: m.Units + other.Units}
}

// Major returns the major-unit value as a float64 for display purposes.
// Use Units for calculations to avoid floating-point drift.
func (m Money) Major() float64 {
	return float64(m.Units) / 100.0
}

// DecimalString renders the amount as a plain decimal with two fraction
// digits, e.g. 1234 -> "12.34". It is the inverse of ParseDecimalToUnits
// for the amounts the ledger accepts.
func (m Money) DecimalString() string {
	units := m.Units
	neg := units < 0
	if neg {
		units = -units
	}
	s := strconv.FormatInt(units/100, 10) + "." + fmt.Sprintf("%02d", units%100)
	if neg {
		return "-" + s
	}
	return s
}

// ParseDecimalToUnits converts a decimal string to minor units with
// half-up rounding on the third decimal place. Both dot and comma decimal
// separators are accepted; only positive amounts are valid.
//
//	ParseDecimalToUnits("12.34") -> 1234
//	ParseDecimalToUnits("12,34") -> 1234
//	ParseDecimalToUnits("12.345") -> 1235
func ParseDecimalToUnits(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Guard the *100 below.
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		frac = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			frac += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	units := iv*100 + frac
	if units <= 0 {
		return 0, ErrInvalidAmount
	}
	return units, nil
}
