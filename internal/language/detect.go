package language

import (
	"strings"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

const minDetectLetters = 6

// Detector guesses the ISO 639-1 code of short news text with lingua.
// It is safe for concurrent use.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector restricted to the given ISO 639-1 codes.
// Fewer than two recognised codes fall back to every language lingua knows.
func NewDetector(codes []string) *Detector {
	languages := lookupLanguages(codes)

	builder := lingua.NewLanguageDetectorBuilder()
	var configured lingua.LanguageDetectorBuilder
	if len(languages) < 2 {
		configured = builder.FromAllLanguages()
	} else {
		configured = builder.FromLanguages(languages...)
	}
	return &Detector{detector: configured.Build()}
}

// DetectLanguage returns the detected code, or "" when the text is too short
// or lingua is not confident.
func (d *Detector) DetectLanguage(text string) string {
	if d == nil || d.detector == nil {
		return ""
	}
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letters := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < minDetectLetters {
		return ""
	}

	detected, ok := d.detector.DetectLanguageOf(sample)
	if !ok {
		return ""
	}
	code := strings.ToLower(detected.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func lookupLanguages(codes []string) []lingua.Language {
	wanted := NormalizeCodes(codes)
	if len(wanted) == 0 {
		return nil
	}

	languages := make([]lingua.Language, 0, len(wanted))
	for _, code := range wanted {
		for _, candidate := range lingua.AllLanguages() {
			if strings.EqualFold(candidate.IsoCode639_1().String(), code) {
				languages = append(languages, candidate)
				break
			}
		}
	}
	return languages
}
