package ocr

import "testing"

func TestBestAmountTotalPriority(t *testing.T) {
	// Rp50.000 is larger, but the TOTAL line should win on keyword boost.
	matches := []string{"Rp50.000", "TOTAL Rp40.000"}
	amt, raw, ok := BestAmountFromMatches(matches)
	if !ok {
		t.Fatalf("no amount chosen")
	}
	if amt != 40000 {
		t.Fatalf("expected 40000 (TOTAL) got %d raw=%s", amt, raw)
	}
}

func TestBestAmountJumlahKeyword(t *testing.T) {
	matches := []string{"125000", "JUMLAH Rp85.000"}
	amt, _, ok := BestAmountFromMatches(matches)
	if !ok || amt != 85000 {
		t.Fatalf("expected 85000 got %d ok=%v", amt, ok)
	}
}

func TestBestAmountPrefersCurrencyMarker(t *testing.T) {
	// a bare long digit run (e.g. a record number) must lose to Rp-marked amounts
	matches := []string{"2025083112", "Rp60.000"}
	amt, _, ok := BestAmountFromMatches(matches)
	if !ok || amt != 60000 {
		t.Fatalf("expected 60000 got %d ok=%v", amt, ok)
	}
}

func TestBestAmountTieTakesLarger(t *testing.T) {
	// equal score: the sum line is larger than a line item
	matches := []string{"Rp15.000", "Rp40.000"}
	amt, _, ok := BestAmountFromMatches(matches)
	if !ok || amt != 40000 {
		t.Fatalf("expected 40000 got %d ok=%v", amt, ok)
	}
}

func TestBestAmountEmpty(t *testing.T) {
	if _, _, ok := BestAmountFromMatches(nil); ok {
		t.Fatalf("expected no result for empty input")
	}
}
