package utils

import (
	"testing"
	"time"
)

func TestTimeToMs(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected float64
	}{
		{1 * time.Second, 1000},
		{500 * time.Millisecond, 500},
		{0, 0},
		{1500 * time.Microsecond, 1.5},
	}

	for _, tt := range tests {
		result := TimeToMs(tt.duration)
		if result != tt.expected {
			t.Errorf("TimeToMs(%v) = %f, expected %f", tt.duration, result, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Nanosecond, "500ns"},
		{1234 * time.Microsecond, "1ms"},
		{1500 * time.Millisecond, "1.5s"},
		{125 * time.Second, "2m5s"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.duration); got != tt.expected {
			t.Errorf("FormatDuration(%v) = %q, expected %q", tt.duration, got, tt.expected)
		}
	}
}
