package convert

import (
	"math"
	"testing"
)

func TestRoundFloat64(t *testing.T) {
	tests := []struct {
		in       float64
		decimals int
		want     float64
	}{
		{2.3333333, 4, 2.3333},
		{-1.005, 1, -1.0},
		{123.456, 0, 123},
		{0.125, 2, 0.13},
	}
	for _, tt := range tests {
		if got := RoundFloat64(tt.in, tt.decimals); got != tt.want {
			t.Errorf("RoundFloat64(%f, %d): got %f, wanted %f", tt.in, tt.decimals, got, tt.want)
		}
	}

	if got := RoundFloat64(math.Inf(1), 2); !math.IsInf(got, 1) {
		t.Errorf("got %f, wanted +Inf", got)
	}
}

func TestTwoDecimals(t *testing.T) {
	if got := TwoDecimals(3.14159); got != 3.14 {
		t.Errorf("got %f, wanted %f", got, 3.14)
	}
}
