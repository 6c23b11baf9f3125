// Package language normalizes language codes and detects the language of
// untagged article text.
package language

import "strings"

// NormalizeCode reduces a language tag such as " EN_us " or "ru-RU" to its
// lower-case primary subtag. Malformed tags yield "".
func NormalizeCode(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}

	primary, _, _ := strings.Cut(strings.ReplaceAll(trimmed, "_", "-"), "-")
	if len(primary) < 2 || len(primary) > 3 {
		return ""
	}
	for _, r := range primary {
		if r < 'a' || r > 'z' {
			return ""
		}
	}
	return primary
}

// NormalizeCodes normalizes and deduplicates codes, dropping malformed ones.
func NormalizeCodes(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	codes := make([]string, 0, len(raw))
	for _, value := range raw {
		code := NormalizeCode(value)
		if code == "" {
			continue
		}
		if _, exists := seen[code]; exists {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}
