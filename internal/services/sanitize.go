package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	phoneLike  = regexp.MustCompile(`\+?\d[\d\s/-]{6,}`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Clean a free-text address before geocoding.
//
// Phone-number-like tokens are removed and whitespace collapsed, then
// comma-separated parts without any letter are dropped. If nothing survives
// the trimmed input is returned unchanged.
func SanitizeAddress(raw string) string {
	s := phoneLike.ReplaceAllString(raw, " ")
	s = whitespace.ReplaceAllString(s, " ")

	parts := strings.Split(s, ",")
	kept := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || !hasLetter(p) {
			continue
		}
		kept = append(kept, p)
	}

	if len(kept) == 0 {
		return strings.TrimSpace(raw)
	}
	return strings.Join(kept, ", ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Latin, unicode.Cyrillic) {
			return true
		}
	}
	return false
}

// FoldName lowercases and strips diacritics so "Kanjiža" matches "kanjiza".
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	// đ has no combining form.
	out = strings.NewReplacer("đ", "dj", "Đ", "Dj").Replace(out)
	return strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(out), " "))
}
