package textclean

import (
	"regexp"
	"strings"
)

// Vision models tend to wrap their answer in conversational boilerplate,
// markdown formatting and section headers mirroring the instructions they were
// given. The functions here strip that noise back out; each analyzer variant
// composes its own pipeline out of them.

var (
	reBold         = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reItalic       = regexp.MustCompile(`\*([^*]+)\*`)
	reHeading      = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	reBullet       = regexp.MustCompile(`(?m)^[-•]\s*`)
	reNumbered     = regexp.MustCompile(`(?m)^\d+\.\s*`)
	reNewlines     = regexp.MustCompile(`\n+`)
	reSpaces       = regexp.MustCompile(`\s+`)
	reSemiColons   = regexp.MustCompile(`[;:]+`)
	reCommaRuns    = regexp.MustCompile(`,\s*,+`)
	reCommaSpacing = regexp.MustCompile(`\s*,\s*`)
)

// StripPrefixes removes the first matching prefix (case-insensitive) from s.
// Only one prefix is removed; the result is trimmed.
func StripPrefixes(s string, prefixes []string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(prefix)) {
			return strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}

// StripMarkdown removes bold/italic markers and heading prefixes while keeping
// the wrapped text.
func StripMarkdown(s string) string {
	s = reBold.ReplaceAllString(s, "$1")
	s = reItalic.ReplaceAllString(s, "$1")
	s = reHeading.ReplaceAllString(s, "")
	return s
}

// StripListMarkers removes leading bullet and numbered-list markers per line.
func StripListMarkers(s string) string {
	s = reBullet.ReplaceAllString(s, "")
	s = reNumbered.ReplaceAllString(s, "")
	return s
}

// StripSectionHeaders removes whole lines that start with one of the given
// section headers (case-insensitive), e.g. "COLOR ANALYSIS: ...".
func StripSectionHeaders(s string, headers []string) string {
	for _, h := range headers {
		re := regexp.MustCompile(`(?im)^` + regexp.QuoteMeta(h) + `:?[^\n]*\n?`)
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// RemoveFillerPhrases deletes hedging phrases that carry no descriptive value
// ("appears to be", "we can see", ...). Matching is case-insensitive and
// bounded at word boundaries.
func RemoveFillerPhrases(s string, phrases []string) string {
	for _, phrase := range phrases {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// NewlinesToCommas converts newline runs into comma separators.
func NewlinesToCommas(s string) string {
	return reNewlines.ReplaceAllString(s, ", ")
}

// CollapseWhitespace squeezes all whitespace runs to single spaces and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// NormalizeCommas converts semicolons and colons to commas, removes empty
// list items and standardizes separators to ", ".
func NormalizeCommas(s string) string {
	s = reSemiColons.ReplaceAllString(s, ",")
	s = reCommaRuns.ReplaceAllString(s, ",")
	s = reCommaSpacing.ReplaceAllString(s, ", ")
	s = CollapseWhitespace(s)

	parts := strings.Split(s, ",")
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// tagSuffixes are word suffixes joined with an underscore to form booru-style
// tags, e.g. "long hair" -> "long_hair". Longer entries come first so that
// "under eye" wins over "eye".
var tagSuffixes = []string{
	" behind back",
	" at viewer",
	" under eye",
	" viewer",
	" hair",
	" eyes",
	" body",
	" mouth",
	" back",
	" sky",
}

// UnderscoreTags joins known descriptor suffixes with underscores so the
// output matches booru tag conventions.
func UnderscoreTags(s string) string {
	for _, suffix := range tagSuffixes {
		s = strings.ReplaceAll(s, suffix, "_"+strings.ReplaceAll(strings.TrimPrefix(suffix, " "), " ", "_"))
	}
	return s
}

// TrimTrailingPunct removes trailing periods, commas, semicolons and colons.
func TrimTrailingPunct(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".,;:")
}

// TruncateAtCommas shortens s to at most max characters, cutting only at
// comma boundaries. Individual items must fit within budget characters
// including their ", " separator; once an item does not fit, the rest is
// dropped.
func TruncateAtCommas(s string, max, budget int) string {
	if len(s) <= max {
		return s
	}
	parts := strings.Split(s, ", ")
	kept := make([]string, 0, len(parts))
	count := 0
	for _, part := range parts {
		part = strings.TrimSpace(part)
		length := len(part)
		if len(kept) > 0 {
			length += 2 // ", " separator
		}
		if count+length > budget {
			break
		}
		kept = append(kept, part)
		count += length
	}
	return strings.Join(kept, ", ")
}

// SmartTruncate shortens a comma-separated description to at most max
// characters while preferring items that mention one of the priority
// keywords. Keyword-bearing items are kept first; remaining items fill
// whatever space is left, in order.
func SmartTruncate(s string, max int, keywords []string) string {
	if len(s) <= max {
		return s
	}
	parts := strings.Split(s, ", ")
	kept := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	count := 0

	add := func(part string) {
		length := len(part) + 2
		if count+length > max {
			return
		}
		kept = append(kept, part)
		seen[part] = true
		count += length
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || !containsAnyKeyword(part, keywords) {
			continue
		}
		add(part)
	}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		if count+len(part)+2 > max {
			break
		}
		add(part)
	}
	return strings.Join(kept, ", ")
}

func containsAnyKeyword(part string, keywords []string) bool {
	lower := strings.ToLower(part)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
