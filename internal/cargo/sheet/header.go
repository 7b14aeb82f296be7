package sheet

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const mergedMeasureHeader = "medida de caja"

var measureHeaders = [3]string{"Largo", "Ancho", "Alto"}

// Fold lowercases s and strips diacritics, so "Medída de CAJA" matches "medida de caja".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}

// repairHeaders rewrites a merged "MEDIDA DE CAJA" heading into Largo/Ancho/Alto.
// Only the first match counts and its followers must be blank or absent.
func repairHeaders(headers []string) ([]string, bool) {
	idx := -1
	for i, h := range headers {
		if strings.Contains(Fold(h), mergedMeasureHeader) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return headers, false
	}

	for j := idx + 1; j <= idx+2; j++ {
		if j < len(headers) && strings.TrimSpace(headers[j]) != "" {
			return headers, false
		}
	}

	out := make([]string, max(len(headers), idx+3))
	copy(out, headers)
	for k, name := range measureHeaders {
		out[idx+k] = name
	}
	return out, true
}
