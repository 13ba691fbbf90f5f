package facematch

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NewFaceLabel is drawn above faces that were just enrolled.
const NewFaceLabel = "New Face"

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// ASCIILabel makes s printable with an ASCII-only font: diacritics are
// removed and any remaining non-ASCII rune becomes '?'.
func ASCIILabel(s string) string {
	s = RemoveDiacritics(s)
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return '?'
		}
		return r
	}, s)
}

// DisplayLabel returns the overlay text for r: "ID: <n>" for known faces,
// with the stored name appended when there is one, and "New Face" otherwise.
func DisplayLabel(r Result) string {
	if !r.Known {
		return NewFaceLabel
	}
	label := "ID: " + strconv.Itoa(r.ID)
	if name := strings.TrimSpace(r.Label); name != "" {
		label += " (" + ASCIILabel(name) + ")"
	}
	return label
}
