// Package core defines the typed entity records consumed by the analytics
// engine and the normalization applied to them at ingestion.
//
// All amounts are float64 values in a single normalized base currency.
// Malformed values are coerced to 0 exactly once, here, so downstream
// consumers never re-check.
package core

import (
	"math"
	"strconv"
	"strings"
)

// IsValidAmount reports whether a is a finite, non-negative amount.
func IsValidAmount(a float64) bool {
	return !math.IsNaN(a) && !math.IsInf(a, 0) && a >= 0
}

// SanitizeAmount coerces negative or non-finite amounts to 0.
func SanitizeAmount(a float64) float64 {
	if !IsValidAmount(a) {
		return 0
	}
	return a
}

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// strips surrounding whitespace and a leading currency symbol. Negative or
// unparseable input yields 0 with ok=false; callers count the record but
// contribute nothing.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "€$£ ")
	if s == "" {
		return 0, false
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsValidAmount(v) {
		return 0, false
	}
	return v, true
}
