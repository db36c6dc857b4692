package photometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrMalformedNumber is wrapped by ParseDecimal for text that is not a plain
// finite decimal number.
var ErrMalformedNumber = errors.New("not a finite decimal number")

// ParseDecimal parses an optionally signed decimal number with an optional
// exponent, such as "-1", "12.5" or "1e3". NaN, infinities, hex floats and
// values that overflow float64 are rejected.
func ParseDecimal(s string) (float64, error) {
	if !isDecimal(s) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedNumber, err)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	return v, nil
}

// ParseWholeNumber parses a decimal that must hold an integral value within
// the int32 range, so "12" and "12.0" are accepted but "1.5" is not.
func ParseWholeNumber(s string) (int, error) {
	f, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int(f), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(s) && isDigit(s[i]); i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && isDigit(s[i]); i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for ; i < len(s) && isDigit(s[i]); i++ {
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}
