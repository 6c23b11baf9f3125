package clustering

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"horse.fit/clusterer/internal/language"
	"horse.fit/clusterer/internal/textnorm"
)

const minTokenRunes = 3

// LanguageDetector guesses the ISO 639-1 code of a text, or returns "".
type LanguageDetector interface {
	DetectLanguage(text string) string
}

// Tokenizer turns article text into deduplicated comparison tokens with
// per-language stopword removal.
type Tokenizer struct {
	stopwords map[string]map[string]struct{}
	union     map[string]struct{}
}

// NewTokenizer indexes stopword lists keyed by language code.
func NewTokenizer(stopwords map[string][]string) *Tokenizer {
	t := &Tokenizer{
		stopwords: make(map[string]map[string]struct{}, len(stopwords)),
		union:     make(map[string]struct{}),
	}
	for lang, words := range stopwords {
		code := language.NormalizeCode(lang)
		if code == "" {
			continue
		}
		set, ok := t.stopwords[code]
		if !ok {
			set = make(map[string]struct{}, len(words))
			t.stopwords[code] = set
		}
		for _, word := range words {
			normalized := strings.ToLower(strings.TrimSpace(word))
			if normalized == "" {
				continue
			}
			set[normalized] = struct{}{}
			t.union[normalized] = struct{}{}
		}
	}
	return t
}

// Languages reports the codes with a configured stopword list.
func (t *Tokenizer) Languages() []string {
	codes := make([]string, 0, len(t.stopwords))
	for code := range t.stopwords {
		codes = append(codes, code)
	}
	return codes
}

// Tokens sanitizes text, lower-cases it, keeps letters and digits, and
// returns the unique tokens of at least three runes that are not stopwords
// for lang. An unknown or empty lang uses every configured stopword.
func (t *Tokenizer) Tokens(text, lang string) []string {
	return t.tokensOf(textnorm.Sanitize(text), lang)
}

// tokensOf tokenizes text that is already sanitized.
func (t *Tokenizer) tokensOf(cleaned, lang string) []string {
	if cleaned == "" {
		return nil
	}

	stop := t.stopwordsFor(lang)
	fields := strings.FieldsFunc(strings.ToLower(cleaned), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) < minTokenRunes {
			continue
		}
		if _, isStop := stop[field]; isStop {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		tokens = append(tokens, field)
	}
	return tokens
}

func (t *Tokenizer) stopwordsFor(lang string) map[string]struct{} {
	if t == nil {
		return nil
	}
	if set, ok := t.stopwords[language.NormalizeCode(lang)]; ok {
		return set
	}
	return t.union
}

func jaccard[T ~[]string](a, b T) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	left := make(map[string]struct{}, len(a))
	for _, token := range a {
		left[token] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, token := range b {
		right[token] = struct{}{}
	}

	intersection := 0
	for token := range left {
		if _, ok := right[token]; ok {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}
	union := len(left) + len(right) - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
