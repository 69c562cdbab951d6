package format

import "testing"

func TestCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{4.5, "$4.50"},
		{-4.5, "-$4.50"},
		{1234.56, "$1,234.56"},
		{-1234567.89, "-$1,234,567.89"},
		{999.999, "$1,000.00"},
		{0.005, "$0.01"},
	}
	for _, tt := range tests {
		if got := Currency(tt.amount); got != tt.want {
			t.Errorf("Currency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "0.0%"},
		{42.68, "42.7%"},
		{100, "100.0%"},
	}
	for _, tt := range tests {
		if got := Percent(tt.value); got != tt.want {
			t.Errorf("Percent(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
