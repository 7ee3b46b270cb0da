package ocr

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// amountPatterns, tried in order. Keyword-anchored patterns first so the
// billed total wins over line items and record numbers.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:jumlah(?:\s+bayar)?|total(?:\s+bayar|\s+tagihan)?|grand\s+total|tagihan|bayar)[:\s]*(?:Rp|IDR)?[\s]*([0-9\.,]+)`),
	regexp.MustCompile(`(?i)Rp[\s]*([0-9\.,]+)`),
	regexp.MustCompile(`(?i)IDR[\s]*([0-9\.,]+)`),
	regexp.MustCompile(`([0-9]{1,3}(?:[.,][0-9]{3})+)`),
	regexp.MustCompile(`([0-9]{5,})`),
}

// ExtractAmountFromImage runs Tesseract over the receipt twice — once on the
// raw file, once on a preprocessed copy — and extracts the billed total in
// whole rupiah. Returns (amount, confidence, raw matched substring, error).
// ErrNoAmount means the image was readable but carried no plausible total.
func ExtractAmountFromImage(path string) (int64, float64, string, error) {
	rawText, err := ocrPass(path)
	if err != nil {
		return 0, 0, "", fmt.Errorf("ocr raw pass: %w", err)
	}
	prepped, cleanup := prepareImage(path)
	defer cleanup()
	prepText, err := ocrPass(prepped)
	if err != nil {
		// preprocessed pass is best-effort; the raw pass already succeeded
		prepText = ""
	}

	text := normalizeText(rawText + " " + prepText)
	log.Printf("OCR %s snippet=%q", path, snippet(text, 160))

	matches := findMatches(text)
	if len(matches) == 0 {
		return 0, 0, "", ErrNoAmount
	}
	amt, raw, ok := BestAmountFromMatches(matches)
	if !ok {
		return 0, 0, "", ErrNoAmount
	}
	return amt, confidenceFor(raw, text), raw, nil
}

// ocrPass runs a single Tesseract invocation restricted to the characters
// that appear in rupiah amounts and their labels.
func ocrPass(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	_ = client.SetLanguage("eng")
	_ = client.SetWhitelist("0123456789RpIDRidrTOALJUMHBYGtoaljumhbyg.,:()/- ")
	if err := client.SetImage(path); err != nil {
		return "", err
	}
	return client.Text()
}

// findMatches collects deduplicated candidate substrings, keeping the
// currency marker attached so scoring can prioritize it.
func findMatches(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, re := range amountPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			s := strings.TrimSpace(m[1])
			if s == "" {
				continue
			}
			full := strings.ToLower(m[0])
			if (strings.Contains(full, "rp") || strings.Contains(full, "idr")) && !strings.Contains(strings.ToLower(s), "rp") {
				s = "Rp" + s
			}
			for _, kw := range totalKeywords {
				if strings.Contains(full, kw) && !strings.Contains(strings.ToLower(s), kw) {
					s = strings.ToUpper(kw) + " " + s
					break
				}
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			if isPlausibleAmount(s) {
				out = append(out, s)
			}
		}
	}
	return out
}

// confidenceFor is a cheap proxy: currency markers and cents suffixes push
// the match well above the acceptance threshold used by callers.
func confidenceFor(raw, text string) float64 {
	conf := float64(len(raw)) / float64(len(text)+1)
	if conf > 1 {
		conf = 1
	}
	low := strings.ToLower(raw)
	if strings.Contains(low, "rp") || strings.Contains(low, "idr") ||
		strings.HasSuffix(low, ",00") || strings.HasSuffix(low, ".00") {
		if conf < 0.85 {
			conf = 0.85
		}
	}
	return conf
}

// snippet shortens text for logging.
func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
