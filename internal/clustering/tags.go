package clustering

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrMalformedTags is returned by DecodeTags when a payload is neither a list
// nor a string.
var ErrMalformedTags = errors.New("malformed tags payload")

// Tags is an ordered set of normalized (trimmed, lower-case, unique) tags.
type Tags []string

// NormalizeTags trims, lower-cases and deduplicates values, keeping the first
// occurrence order.
func NormalizeTags(values []string) Tags {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	tags := make(Tags, 0, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		tags = append(tags, normalized)
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// DecodeTags converts a stored tag payload into Tags. It accepts a JSON list,
// a JSON string holding an encoded list, a JSON string holding a single tag,
// or bare text. Other JSON values yield no tags and ErrMalformedTags.
func DecodeTags(raw []byte) (Tags, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return NormalizeTags([]string{string(trimmed)}), nil
	}
	return tagsFromValue(value, true)
}

func tagsFromValue(value any, allowNested bool) (Tags, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			switch tag := item.(type) {
			case string:
				items = append(items, tag)
			case float64:
				items = append(items, strconv.FormatFloat(tag, 'f', -1, 64))
			case bool:
				items = append(items, strconv.FormatBool(tag))
			}
		}
		return NormalizeTags(items), nil
	case string:
		if allowNested {
			var nested any
			if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &nested); err == nil {
				if list, ok := nested.([]any); ok {
					return tagsFromValue(list, false)
				}
			}
		}
		return NormalizeTags([]string{v}), nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrMalformedTags, value)
	}
}

func tagsJaccard(a, b Tags) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return jaccard(a, b)
}
