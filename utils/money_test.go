package utils_test

import (
	"testing"

	"gutschein/utils"
)

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"50.00", 5000, false},
		{"50", 5000, false},
		{"0.01", 1, false},
		{" 25.50 ", 2550, false},
		{"1234.99", 123499, false},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5.00", 0, true},
		{"50.005", 0, true},
		{"fünfzig", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		got, err := utils.ParseAmountToCents(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseAmountToCents(%q): expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmountToCents(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAmountToCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatCents(t *testing.T) {
	if got := utils.FormatCents(5000); got != "50.00" {
		t.Errorf("FormatCents(5000) = %q, want \"50.00\"", got)
	}
	if got := utils.FormatCents(1); got != "0.01" {
		t.Errorf("FormatCents(1) = %q, want \"0.01\"", got)
	}
	if got := utils.FormatCents(123499); got != "1234.99" {
		t.Errorf("FormatCents(123499) = %q, want \"1234.99\"", got)
	}
}

func TestCentsWithinTolerance(t *testing.T) {
	if !utils.CentsWithinTolerance(5000, 5001, 1) {
		t.Error("one cent difference should be inside a one cent tolerance")
	}
	if !utils.CentsWithinTolerance(5001, 5000, 1) {
		t.Error("tolerance must be symmetric")
	}
	if utils.CentsWithinTolerance(5000, 5002, 1) {
		t.Error("two cents difference should be outside a one cent tolerance")
	}
	if !utils.CentsWithinTolerance(5000, 5000, 0) {
		t.Error("equal amounts are always within tolerance")
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	cents, err := utils.ParseAmountToCents("99.95")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := utils.FormatCents(cents); got != "99.95" {
		t.Fatalf("round trip changed the value: %q", got)
	}
}
