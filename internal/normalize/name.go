package normalize

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining accents (e.g. "Mandyā" -> "Mandya").
// Transformers and casers carry state, so a fresh one is built per call.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Key returns the comparison key for an entity name: accents stripped,
// case folded and whitespace collapsed. The stored name is never changed,
// only the key is used for comparison.
func Key(raw string) string {
	if raw == "" {
		return ""
	}

	s, _, err := transform.String(stripMarks(), raw)
	if err != nil {
		s = raw
	}
	s = cases.Fold().String(s)

	return strings.Join(strings.Fields(s), " ")
}

// Equal reports whether two names share the same comparison key
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// Display trims the surrounding whitespace that composite boundary names
// carry after splitting on the separator
func Display(raw string) string {
	return strings.TrimSpace(raw)
}

// ParseNumber converts an indicator cell to float64. Values that parse but
// are not finite (NaN, Inf) are reported as syntax errors.
func ParseNumber(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &strconv.NumError{Func: "ParseFloat", Num: trimmed, Err: strconv.ErrSyntax}
	}
	return f, nil
}
