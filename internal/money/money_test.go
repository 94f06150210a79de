package money

import "testing"

func TestNormalizeCurrency(t *testing.T) {
	cases := map[string]string{
		"jod":  "JOD",
		" usd": "USD",
		"USD":  "USD",
		"US":   "",
		"USDX": "",
		"12D":  "",
		"":     "",
	}
	for in, want := range cases {
		if got := NormalizeCurrency(in); got != want {
			t.Errorf("NormalizeCurrency(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMinorUnitExponent(t *testing.T) {
	if got := MinorUnitExponent("JOD"); got != 3 {
		t.Errorf("JOD exponent = %d, want 3", got)
	}
	if got := MinorUnitExponent("USD"); got != 2 {
		t.Errorf("USD exponent = %d, want 2", got)
	}
	if got := MinorUnitExponent("EUR"); got != 2 {
		t.Errorf("EUR exponent = %d, want 2", got)
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		major    string
		currency string
		want     string
		wantErr  bool
	}{
		{"95.5", "JOD", "95500", false},
		{"23.7", "USD", "2370", false},
		{"100", "USD", "10000", false},
		{"0.005", "JOD", "5", false},
		{"0", "USD", "0", false},
		{"0.00", "USD", "0", false},
		{"-12.34", "USD", "-1234", false},
		{"1.234", "USD", "", true}, // too many decimals for a 2-digit currency
		{"1.2345", "JOD", "", true},
		{"abc", "USD", "", true},
		{"1.", "USD", "", true},
		{".5", "USD", "", true},
		{"1,50", "USD", "", true},
		{"10", "usd", "1000", false},
		{"10", "XYZA", "", true},
		{"10", "", "", true},
	}
	for _, tc := range tests {
		got, err := ToMinorUnits(tc.major, tc.currency)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ToMinorUnits(%q, %q) = %q, want error", tc.major, tc.currency, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ToMinorUnits(%q, %q): %v", tc.major, tc.currency, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ToMinorUnits(%q, %q) = %q, want %q", tc.major, tc.currency, got, tc.want)
		}
	}
}

func TestMinorToMajorDisplay(t *testing.T) {
	tests := []struct {
		minor    string
		currency string
		decimals int
		want     string
	}{
		{"95500", "JOD", 2, "95.50"},
		{"95500", "JOD", 3, "95.500"},
		{"2370", "USD", 2, "23.70"},
		{"5", "JOD", 2, "0.01"},   // 0.005 rounds half up
		{"4", "JOD", 2, "0.00"},   // 0.004 rounds down
		{"9995", "JOD", 2, "10.00"},
		{"0", "USD", 2, "0.00"},
		{"150", "USD", 0, "2"},
		{"-1234", "USD", 2, "-12.34"},
	}
	for _, tc := range tests {
		got, err := MinorToMajorDisplay(tc.minor, tc.currency, tc.decimals)
		if err != nil {
			t.Errorf("MinorToMajorDisplay(%q, %q, %d): %v", tc.minor, tc.currency, tc.decimals, err)
			continue
		}
		if got != tc.want {
			t.Errorf("MinorToMajorDisplay(%q, %q, %d) = %q, want %q", tc.minor, tc.currency, tc.decimals, got, tc.want)
		}
	}

	if _, err := MinorToMajorDisplay("12x", "USD", 2); err == nil {
		t.Error("expected error for malformed minor amount")
	}
	if _, err := MinorToMajorDisplay("100", "XY", 2); err == nil {
		t.Error("expected error for invalid currency")
	}
}

func TestRoundTrip(t *testing.T) {
	minor, err := ToMinorUnits("95.5", "JOD")
	if err != nil {
		t.Fatal(err)
	}
	got, err := MinorToMajorDisplay(minor, "JOD", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got != "95.50" {
		t.Errorf("round trip = %q, want %q", got, "95.50")
	}
}
