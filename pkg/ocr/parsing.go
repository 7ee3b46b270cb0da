package ocr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var centsSuffixRE = regexp.MustCompile(`[.,]\d{2}$`)

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeText collapses whitespace and strips newlines/tabs from raw OCR
// output so the matchers can work line-agnostically.
func normalizeText(t string) string {
	t = strings.ReplaceAll(t, "\n", " ")
	t = strings.ReplaceAll(t, "\t", " ")
	return strings.Join(strings.Fields(t), " ")
}

// ParseAmountFromMatch normalizes a matched substring into whole rupiah.
// A trailing two-digit decimal part (10.000,00) is treated as cents and
// dropped.
func ParseAmountFromMatch(found string) (int64, error) {
	found = strings.TrimSpace(found)
	if found == "" {
		return 0, fmt.Errorf("empty match")
	}
	digitsPart := found
	if centsSuffixRE.MatchString(found) {
		lastDot := strings.LastIndex(found, ".")
		lastComma := strings.LastIndex(found, ",")
		cut := lastDot
		if lastComma > lastDot {
			cut = lastComma
		}
		digitsPart = found[:cut]
	}
	digits := onlyDigits(digitsPart)
	if digits == "" {
		return 0, fmt.Errorf("no digits in %q", found)
	}
	amt, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", digits, err)
	}
	if amt < 0 {
		amt = -amt
	}
	return amt, nil
}

// isPlausibleAmount filters out numeric strings that are unlikely to be a
// billed total: phone numbers, record numbers, queue ids. Anything carrying a
// currency marker passes; bare digits must not lead with zero and must stay
// inside a sane rupiah range for a clinic receipt.
func isPlausibleAmount(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	low := strings.ToLower(s)
	if strings.Contains(low, "rp") || strings.Contains(low, "idr") {
		return true
	}
	d := onlyDigits(s)
	if d == "" || d[0] == '0' {
		return false
	}
	if strings.Contains(s, ".") || strings.Contains(s, ",") {
		return len(d) >= 3
	}
	// bare digit run: 4..9 digits (1.000 .. 999.999.999 rupiah)
	return len(d) >= 4 && len(d) <= 9
}
