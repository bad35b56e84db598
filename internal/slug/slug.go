// Package slug builds URL identifiers for posts.
package slug

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxBaseLen = 60

// Slugify lower-cases title, strips diacritics and joins the remaining
// alphanumeric runs with single hyphens.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	out := b.String()
	if len(out) > maxBaseLen {
		out = strings.TrimRight(out[:maxBaseLen], "-")
	}
	if out == "" {
		return "post"
	}
	return out
}

// Disambiguator returns a short random suffix.
func Disambiguator() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Make joins the slugified title and a disambiguator.
func Make(title, disambiguator string) string {
	base := Slugify(title)
	if disambiguator == "" {
		return base
	}
	return base + "-" + disambiguator
}

// New is Make with a fresh disambiguator.
func New(title string) string {
	return Make(title, Disambiguator())
}
