package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestKopecksRoundTrip(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"1", 100},
		{"0.01", 1},
		{"123.45", 12345},
		{"-2.50", -250},
		{"0", 0},
	}
	for _, tc := range cases {
		d := decimal.RequireFromString(tc.in)
		k := Kopecks(d)
		if k != tc.out {
			t.Fatalf("%q expected %d kopecks, got %d", tc.in, tc.out, k)
		}
		if !FromKopecks(k).Equal(d) {
			t.Fatalf("%q did not round-trip: got %s", tc.in, FromKopecks(k))
		}
	}
}
