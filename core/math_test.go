package core

import (
	"errors"
	"math"
	"testing"
)

func TestMulDiv(t *testing.T) {
	cases := []struct {
		name      string
		a, b, den uint64
		want      uint64
	}{
		{"first staker at seed price", 50, 100, 100, 50},
		{"second staker diluted", 50, 100, 150, 33},
		{"exact division", 200, 100, 100, 200},
		{"floors toward zero", 1, 100, 3, 33},
		{"zero stake", 0, 100, 100, 0},
		{"wide intermediate", math.MaxUint64 / 2, 2, math.MaxUint64, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MulDiv(tc.a, tc.b, tc.den)
			if err != nil {
				t.Fatalf("MulDiv(%d, %d, %d): %v", tc.a, tc.b, tc.den, err)
			}
			if got != tc.want {
				t.Errorf("MulDiv(%d, %d, %d): got %d want %d", tc.a, tc.b, tc.den, got, tc.want)
			}
		})
	}
}

func TestMulDivLargeProduct(t *testing.T) {
	// 2^63 * 4 overflows 64 bits but fits the 128-bit intermediate.
	got, err := MulDiv(1<<63, 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1<<62 {
		t.Errorf("got %d want %d", got, uint64(1)<<62)
	}
}

func TestMulDivErrors(t *testing.T) {
	if _, err := MulDiv(1, 1, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("division by zero: got %v want ErrInvalidAmount", err)
	}
	// Quotient exceeds 64 bits.
	if _, err := MulDiv(math.MaxUint64, math.MaxUint64, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("quotient overflow: got %v want ErrInvalidAmount", err)
	}
}
