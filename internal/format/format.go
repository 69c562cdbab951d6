// Package format renders amounts and percentages for human-readable output
// such as anomaly descriptions and CLI reports.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Currency renders a signed amount as US-style currency, e.g. "$1,234.56"
// or "-$4.50".
func Currency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	abs := math.Abs(amount)

	whole := int64(abs)
	cents := int64(math.Round((abs - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}

	return fmt.Sprintf("%s$%s.%02d", sign, groupThousands(whole), cents)
}

// Percent renders a percentage with one decimal place, e.g. "42.7%".
func Percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
