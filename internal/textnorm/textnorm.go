// Package textnorm cleans article text for comparison and display.
package textnorm

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugRunes = 200
	fallbackSlug = "group"
)

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize repairs invalid UTF-8, decodes HTML entities, strips markup and
// collapses whitespace.
func Sanitize(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	decoded := html.UnescapeString(RepairUTF8(input))
	stripped := strictPolicy.Sanitize(decoded)
	// StrictPolicy re-escapes text content.
	return CollapseSpace(html.UnescapeString(stripped))
}

// RepairUTF8 reads every byte that is not part of a valid UTF-8 sequence as
// Latin-1, so legacy feed text like "caf\xe9" keeps its letters.
func RepairUTF8(input string) string {
	if utf8.ValidString(input) {
		return input
	}
	var b strings.Builder
	b.Grow(len(input) + 8)
	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(charmap.ISO8859_1.DecodeByte(input[i]))
			i++
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

// CollapseSpace trims input and replaces whitespace runs with one space.
func CollapseSpace(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// Limit truncates input to at most maxRunes runes. A non-positive limit
// returns input unchanged.
func Limit(input string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(input) <= maxRunes {
		return input
	}
	count := 0
	for i := range input {
		if count == maxRunes {
			return input[:i]
		}
		count++
	}
	return input
}

var transliteration = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	'і': "i", 'ї': "yi", 'є': "ye", 'ґ': "g",
	'ä': "ae", 'ö': "oe", 'ü': "ue", 'ß': "ss",
}

// Slugify produces a lower-case ASCII slug. Cyrillic and German letters are
// transliterated, other accents are folded away, and anything else becomes a
// hyphen. The result is capped at 200 runes and never empty.
func Slugify(input string) string {
	lowered := strings.ToLower(Sanitize(input))

	var translit strings.Builder
	translit.Grow(len(lowered))
	for _, r := range lowered {
		if replacement, ok := transliteration[r]; ok {
			translit.WriteString(replacement)
			continue
		}
		translit.WriteRune(r)
	}

	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		translit.String(),
	)
	if err != nil {
		folded = translit.String()
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if len(slug) > maxSlugRunes {
		slug = slug[:maxSlugRunes]
		if cut := strings.LastIndexByte(slug, '-'); cut > maxSlugRunes/2 {
			slug = slug[:cut]
		}
		slug = strings.TrimRight(slug, "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}
