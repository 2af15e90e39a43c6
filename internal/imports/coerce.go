package imports

import (
	"math"
	"strconv"
	"strings"
)

// Marketplace exports format numbers inconsistently: thousands separated
// by regular or non-breaking spaces, comma decimal separators, and cells
// where a number is followed by an annotation ("1234.50 (по акции)").
// The coercion helpers normalize all of that before parsing.

var numberNormalizer = strings.NewReplacer(
	" ", "",
	" ", "", // NBSP
	" ", "", // narrow NBSP
	",", ".",
)

// leadingNumber extracts the leading numeric token of a cell after
// normalization. Parsing stops at the first character that is neither a
// digit nor a decimal point; an absent or non-numeric prefix reports
// ok=false.
func leadingNumber(s string) (float64, bool) {
	s = numberNormalizer.Replace(strings.TrimSpace(s))

	end := 0
	dot := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !dot {
			dot = true
			end++
			continue
		}
		break
	}
	if end == 0 || s[:end] == "." {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// floatOrZero is the lenient coercion used by the ERP import: empty or
// unparseable cells become zero.
func floatOrZero(s string) float64 {
	v, ok := leadingNumber(s)
	if !ok {
		return 0
	}
	return v
}

// intOrZero coerces stock counts; exports occasionally render them as
// "5.0".
func intOrZero(s string) int {
	return int(math.Round(floatOrZero(s)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
