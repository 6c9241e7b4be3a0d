package textclean

import (
	"strings"
	"testing"
)

func TestStripPrefixes(t *testing.T) {
	prefixes := []string{"The image shows:", "Description:"}
	if got := StripPrefixes("The image shows: a red fox", prefixes); got != "a red fox" {
		t.Fatalf("StripPrefixes = %q", got)
	}
	// case-insensitive
	if got := StripPrefixes("description: a red fox", prefixes); got != "a red fox" {
		t.Fatalf("StripPrefixes case-insensitive = %q", got)
	}
	// only the first matching prefix is removed
	if got := StripPrefixes("Description: Description: x", prefixes); got != "Description: x" {
		t.Fatalf("StripPrefixes double = %q", got)
	}
	// untouched when nothing matches
	if got := StripPrefixes("a plain description", prefixes); got != "a plain description" {
		t.Fatalf("StripPrefixes no-op = %q", got)
	}
}

func TestStripMarkdown(t *testing.T) {
	in := "**bold** and *italic* text\n## Heading\nrest"
	got := StripMarkdown(in)
	if strings.Contains(got, "*") || strings.Contains(got, "#") {
		t.Fatalf("markdown markers left in %q", got)
	}
	if !strings.Contains(got, "bold and italic text") {
		t.Fatalf("wrapped text lost: %q", got)
	}
}

func TestStripListMarkers(t *testing.T) {
	in := "- first\n• second\n1. third\n22. fourth"
	got := StripListMarkers(in)
	for _, want := range []string{"first", "second", "third", "fourth"} {
		if !strings.Contains(got, want) {
			t.Fatalf("item %q lost: %q", want, got)
		}
	}
	if strings.Contains(got, "-") || strings.Contains(got, "•") || strings.Contains(got, "1.") {
		t.Fatalf("markers left in %q", got)
	}
}

func TestStripSectionHeaders(t *testing.T) {
	in := "COLOR ANALYSIS: warm palette\nsoft light, golden hour\nLIGHTING: backlit"
	got := StripSectionHeaders(in, []string{"COLOR ANALYSIS", "LIGHTING"})
	if strings.Contains(got, "COLOR ANALYSIS") || strings.Contains(got, "LIGHTING") {
		t.Fatalf("headers left in %q", got)
	}
	if !strings.Contains(got, "soft light, golden hour") {
		t.Fatalf("content line lost: %q", got)
	}
}

func TestRemoveFillerPhrases(t *testing.T) {
	in := "a woman who appears to be seated, trees visible in the image"
	got := RemoveFillerPhrases(in, []string{"appears to be", "visible in the image"})
	if strings.Contains(got, "appears to be") || strings.Contains(got, "visible in the image") {
		t.Fatalf("filler left in %q", got)
	}
	if !strings.Contains(got, "a woman who") || !strings.Contains(got, "trees") {
		t.Fatalf("content lost: %q", got)
	}
}

func TestNormalizeCommas(t *testing.T) {
	in := "red; blue: green,, , yellow ,purple"
	got := NormalizeCommas(in)
	if got != "red, blue, green, yellow, purple" {
		t.Fatalf("NormalizeCommas = %q", got)
	}
}

func TestUnderscoreTags(t *testing.T) {
	cases := map[string]string{
		"long hair, green eyes":    "long_hair, green_eyes",
		"looking at viewer":        "looking_at_viewer",
		"arms behind back":         "arms_behind_back",
		"mole under eye, blue sky": "mole_under_eye, blue_sky",
	}
	for in, want := range cases {
		if got := UnderscoreTags(in); got != want {
			t.Fatalf("UnderscoreTags(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimTrailingPunct(t *testing.T) {
	if got := TrimTrailingPunct("a fox sitting.,;: "); got != "a fox sitting" {
		t.Fatalf("TrimTrailingPunct = %q", got)
	}
}

func TestTruncateAtCommas(t *testing.T) {
	in := "aaaa, bbbb, cccc, dddd"
	// Short enough: untouched.
	if got := TruncateAtCommas(in, 100, 90); got != in {
		t.Fatalf("TruncateAtCommas no-op = %q", got)
	}
	got := TruncateAtCommas(in, 10, 5)
	if got != "aaaa" {
		t.Fatalf("TruncateAtCommas = %q", got)
	}
	// Never cuts mid-item.
	got = TruncateAtCommas(in, 15, 15)
	for _, part := range strings.Split(got, ", ") {
		if len(part) != 4 {
			t.Fatalf("item cut mid-way: %q", got)
		}
	}
}

func TestSmartTruncate_PrefersKeywords(t *testing.T) {
	in := "distant mountains, a woman in the center, scattered clouds, warm lighting over the scene"
	got := SmartTruncate(in, 45, []string{"woman", "lighting"})
	if !strings.Contains(got, "a woman in the center") {
		t.Fatalf("priority item dropped: %q", got)
	}
	if len(got) > 45+2 {
		t.Fatalf("too long (%d): %q", len(got), got)
	}
}

func TestSmartTruncate_ShortInputUntouched(t *testing.T) {
	in := "short, text"
	if got := SmartTruncate(in, 800, nil); got != in {
		t.Fatalf("SmartTruncate no-op = %q", got)
	}
}
