package language

import (
	"reflect"
	"testing"
)

func TestNormalizeCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: " EN-us ", want: "en"},
		{input: "ru_RU", want: "ru"},
		{input: "de", want: "de"},
		{input: "fil", want: "fil"},
		{input: " ", want: ""},
		{input: "e", want: ""},
		{input: "12", want: ""},
		{input: "english", want: ""},
	}

	for _, tc := range tests {
		if got := NormalizeCode(tc.input); got != tc.want {
			t.Fatalf("NormalizeCode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeCodesDedupes(t *testing.T) {
	t.Parallel()

	got := NormalizeCodes([]string{"EN", "en-GB", "xx1", "ru", ""})
	want := []string{"en", "ru"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected codes: got %v want %v", got, want)
	}
}

func TestLookupLanguages(t *testing.T) {
	t.Parallel()

	if got := lookupLanguages([]string{"en", "ru", "zz"}); len(got) != 2 {
		t.Fatalf("expected two known languages, got %d", len(got))
	}
	if got := lookupLanguages(nil); got != nil {
		t.Fatalf("expected nil for no codes, got %v", got)
	}
}

func TestDetectorIgnoresShortText(t *testing.T) {
	t.Parallel()

	var nilDetector *Detector
	if got := nilDetector.DetectLanguage("some english words here"); got != "" {
		t.Fatalf("expected nil detector to return empty code, got %q", got)
	}

	d := &Detector{}
	if got := d.DetectLanguage("abc"); got != "" {
		t.Fatalf("expected empty code for short text, got %q", got)
	}
}
