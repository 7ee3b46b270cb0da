package ocr

import "testing"

func TestParseAmountFromMatch(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"Rp50.000", 50000, false},
		{"1.234.567", 1234567, false},
		{"10.000,00", 10000, false}, // trailing cents dropped
		{"Rp 75.000,00", 75000, false},
		{"TOTAL Rp40.000", 40000, false},
		{"123456", 123456, false},
		{"", 0, true},
		{"Rp", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseAmountFromMatch(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseAmountFromMatch(%q): expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmountFromMatch(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAmountFromMatch(%q) = %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestIsPlausibleAmount(t *testing.T) {
	plausible := []string{"Rp50.000", "IDR 1.000", "40.000", "75000", "TOTAL 12.500"}
	for _, s := range plausible {
		if !isPlausibleAmount(s) {
			t.Errorf("expected %q to be plausible", s)
		}
	}
	implausible := []string{"", "0812345678901", "081234", "12", "000123"}
	for _, s := range implausible {
		if isPlausibleAmount(s) {
			t.Errorf("expected %q to be implausible", s)
		}
	}
}

func TestFindMatchesKeepsKeywordContext(t *testing.T) {
	text := normalizeText("KLINIK SEHAT\nObat 15.000\nTOTAL Rp40.000\nNo. RM 0042")
	matches := findMatches(text)
	if len(matches) == 0 {
		t.Fatalf("no matches found")
	}
	foundTotal := false
	for _, m := range matches {
		if m == "TOTAL Rp40.000" {
			foundTotal = true
		}
	}
	if !foundTotal {
		t.Fatalf("expected keyword-anchored match, got %v", matches)
	}
}
