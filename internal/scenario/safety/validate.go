package safety

import (
	"strings"

	"worldbuilder/internal/scenario"
)

// Validate reports every policy category raw touches. It never changes the
// text; the caller decides whether to block.
func Validate(raw string) scenario.SafetyVerdict {
	verdict := scenario.SafetyVerdict{IsSafe: true, Issues: []scenario.Issue{}, Suggestions: []string{}}
	if strings.TrimSpace(raw) == "" {
		return verdict
	}

	seen := map[string]bool{}
	suggest := func(s string) {
		if !seen[s] {
			seen[s] = true
			verdict.Suggestions = append(verdict.Suggestions, s)
		}
	}

	for _, c := range catalog {
		if !c.pattern.MatchString(raw) {
			continue
		}
		verdict.Issues = append(verdict.Issues, scenario.Issue{
			Category: c.name,
			Severity: c.severity,
			Message:  c.message,
		})
		suggest(c.suggestion)
	}

	for _, p := range injectionPatterns {
		if p.MatchString(raw) {
			verdict.Issues = append(verdict.Issues, scenario.Issue{
				Category: CategoryPromptInjection,
				Severity: scenario.SeverityHigh,
				Message:  injectionMessage,
			})
			suggest(injectionSuggestion)
			break
		}
	}

	verdict.IsSafe = len(verdict.Issues) == 0
	return verdict
}
