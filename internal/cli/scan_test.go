package cli

import (
	"testing"
	"time"

	"github.com/filingdash/filingdash/internal/model"
)

func TestClampDelay(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  time.Duration
	}{
		{-time.Second, 0},
		{0, 0},
		{300 * time.Millisecond, 300 * time.Millisecond},
		{3 * time.Second, 3 * time.Second},
		{10 * time.Second, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := clampDelay(tt.input); got != tt.want {
			t.Errorf("clampDelay(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestClampMax(t *testing.T) {
	tests := []struct {
		input int
		want  int
	}{
		{0, 5},
		{4, 5},
		{5, 5},
		{30, 30},
		{100, 100},
		{500, 100},
	}
	for _, tt := range tests {
		if got := clampMax(tt.input); got != tt.want {
			t.Errorf("clampMax(%d) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestClampBudget(t *testing.T) {
	tests := []struct {
		input int
		want  int
	}{
		{-1, 0},
		{0, 0},
		{5, 5},
		{model.MaxAICalls, model.MaxAICalls},
		{1000, model.MaxAICalls},
	}
	for _, tt := range tests {
		if got := clampBudget(tt.input); got != tt.want {
			t.Errorf("clampBudget(%d) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
