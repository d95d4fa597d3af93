package safety

import (
	"strings"
	"unicode"

	"worldbuilder/internal/scenario"
)

// Sanitize trims raw and rewrites it for safe embedding in a prompt.
// Substitution runs first, then case normalization, then the length cap.
func Sanitize(raw string) scenario.SanitizationResult {
	text := strings.TrimSpace(raw)
	result := scenario.SanitizationResult{Warnings: []scenario.Warning{}}
	if text == "" {
		return result
	}

	for _, c := range catalog {
		var matched []string
		text = c.pattern.ReplaceAllStringFunc(text, func(m string) string {
			matched = append(matched, m)
			if alt, ok := reframings[strings.ToLower(m)]; ok {
				return alt
			}
			return FilteredMarker
		})
		if len(matched) == 0 {
			continue
		}
		result.WasModified = true
		result.Warnings = append(result.Warnings, scenario.Warning{
			Category:     c.name,
			MatchedTerms: matched,
			Message:      "Content related to " + strings.Replace(c.name, "_", " ", 1) + " was filtered for safety.",
		})
	}

	if isShouting(text) {
		text = capitalizeFirst(strings.ToLower(text))
		result.WasModified = true
		result.Warnings = append(result.Warnings, scenario.Warning{
			Category: CategoryFormatting,
			Message:  "Excessive capitalization was normalized.",
		})
	}

	if runes := []rune(text); len(runes) > MaxInputRunes {
		text = string(runes[:MaxInputRunes]) + TruncationMark
		result.WasModified = true
		result.Warnings = append(result.Warnings, scenario.Warning{
			Category: CategoryLength,
			Message:  "Input was truncated to maintain reasonable length.",
		})
	}

	result.Sanitized = text
	return result
}

// SanitizedText is Sanitize(raw).Sanitized.
func SanitizedText(raw string) string {
	return Sanitize(raw).Sanitized
}

// isShouting reports an all upper-case text longer than ten runes.
// Text without letters never counts.
func isShouting(text string) bool {
	if len([]rune(text)) <= minShoutingRune {
		return false
	}
	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if unicode.IsLower(r) {
			return false
		}
	}
	return hasLetter
}

func capitalizeFirst(text string) string {
	if text == "" {
		return text
	}
	first := text[0]
	if first >= 'a' && first <= 'z' {
		return string(first-'a'+'A') + text[1:]
	}
	return text
}
