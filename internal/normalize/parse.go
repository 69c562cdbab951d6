package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
)

// ParseDate parses the date formats commonly found in bank exports and
// returns the ISO calendar date. Supported: "2006-01-02"; "MM/DD/YYYY" or
// "DD/MM/YYYY", disambiguated by which slot is a valid month, preferring
// MM/DD when both are plausible; "M/D/YY" with a two-digit-year heuristic
// (>= 50 means 19xx, otherwise 20xx).
func ParseDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	if isoDateRe.MatchString(s) {
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return "", false
		}
		return s, true
	}

	m := slashDateRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		if year >= 50 {
			year += 1900
		} else {
			year += 2000
		}
	}

	month, day := a, b
	if a > 12 && b <= 12 {
		month, day = b, a
	}

	if !validDate(year, month, day) {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// ParseAmount parses a monetary cell: currency symbols and thousands
// separators are stripped, parenthesized values are negative, and both
// ASCII and Unicode minus signs are honored.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	parenNeg := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if parenNeg {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	minusNeg := strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−")

	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '£', '€', ',', ' ', '-', '−', '+':
			return -1
		}
		return r
	}, s)

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}

	if parenNeg || minusNeg {
		value = -value
	}
	return value, true
}
