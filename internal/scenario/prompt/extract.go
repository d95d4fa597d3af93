package prompt

import (
	"regexp"
	"strings"
)

// Name patterns are tried in order; the name group is case-sensitive so
// "16-year-old student" does not yield "student".
var namePatterns = []struct {
	re    *regexp.Regexp
	group int
}{
	{regexp.MustCompile(`\d+-(?i:year-old)\s+([A-Z][a-z]+)`), 1},
	{regexp.MustCompile(`\b([A-Z][a-z]+),?\s+(?i:an?\s+)?\d+-(?i:year-old)`), 1},
	{regexp.MustCompile(`\b([A-Z][a-z]+)\s+(?i:in|from|at|experiences)\b`), 1},
	{regexp.MustCompile(`(?:^|\. )([A-Z][a-z]+)(?:'s|\s)`), 1},
}

// Words that start sentences often enough to be mistaken for names.
var notNames = map[string]bool{
	"The": true, "In": true, "At": true, "As": true, "It": true, "This": true,
	"Her": true, "His": true, "Their": true, "She": true, "He": true, "They": true,
	"When": true, "Today": true, "Every": true, "From": true, "Title": true,
}

var (
	quotedTitle   = regexp.MustCompile(`"([^"]+)"`)
	namedSetting  = regexp.MustCompile(`(?i)\b(?:floating|mobile|virtual|digital|sacred|innovative)\s+(?:classroom|school|learning|education)\b`)
	placedSetting = regexp.MustCompile(`(?i)\b(?:aboard|in|at)\s+(?:one of|the)\s+([^.]+?)(?:\s+[–-]|\.|,)`)
)

// ExtractCharacterName guesses the protagonist's name from a scenario. It
// returns "" when nothing plausible is found.
func ExtractCharacterName(text string) string {
	for _, p := range namePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			if name := m[p.group]; !notNames[name] {
				return name
			}
		}
	}
	return ""
}

// ExtractSetting guesses where a scenario takes place: a quoted title, a
// named kind of classroom, or an "aboard/in/at the ..." phrase.
func ExtractSetting(text string) string {
	if m := quotedTitle.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := namedSetting.FindString(text); m != "" {
		return m
	}
	if m := placedSetting.FindString(text); m != "" {
		return strings.TrimRight(strings.TrimSpace(m), " –-.,")
	}
	return ""
}
