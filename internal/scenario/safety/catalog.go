// Package safety screens free text before it reaches a prompt. Sanitize
// rewrites unsafe terms; Validate reports them without changing the text.
package safety

import (
	"regexp"

	"worldbuilder/internal/scenario"
)

const (
	FilteredMarker  = "[CONTENT_FILTERED]"
	TruncationMark  = "..."
	MaxInputRunes   = 1000
	minShoutingRune = 10

	CategoryFormatting      = "formatting"
	CategoryLength          = "length"
	CategoryPromptInjection = "prompt_injection"
)

const (
	defaultIssueMessage = "Content may not be appropriate for educational scenarios."
	defaultSuggestion   = "Please focus on positive, constructive educational approaches."
	injectionMessage    = "Potential prompt manipulation detected."
	injectionSuggestion = "Please focus on educational content and avoid system instructions."
)

// category is one entry of the content policy. Matching is case-insensitive,
// on word boundaries, and never spans a line break.
type category struct {
	name       string
	pattern    *regexp.Regexp
	severity   scenario.Severity
	message    string
	suggestion string
}

func mustCategory(name, alternatives string, severity scenario.Severity, message, suggestion string) category {
	if message == "" {
		message = defaultIssueMessage
	}
	if suggestion == "" {
		suggestion = defaultSuggestion
	}
	return category{
		name:       name,
		pattern:    regexp.MustCompile(`(?i)\b(` + alternatives + `)\b`),
		severity:   severity,
		message:    message,
		suggestion: suggestion,
	}
}

// catalog is applied in order; later categories see earlier substitutions.
var catalog = []category{
	mustCategory("violence", `violence|weapon|attack|harm|hurt|kill|death|murder|fight|war`, scenario.SeverityHigh,
		"Content promoting violence is not appropriate for educational scenarios.",
		"Consider focusing on peaceful conflict resolution and collaborative problem-solving."),
	mustCategory("dangerous_items", `bomb|gun|knife|explosive|poison|drug`, scenario.SeverityLow, "", ""),
	mustCategory("discrimination", `hate|discriminat.*against|supremac|inferior|subhuman`, scenario.SeverityMedium,
		"Discriminatory content conflicts with inclusive education principles.",
		"Try emphasizing inclusive practices and celebrating diversity."),
	mustCategory("hate_speech", `racist|sexist|homophobic|transphobic|xenophobic`, scenario.SeverityMedium, "", ""),
	mustCategory("exploitation", `exploit.*child|abuse.*student|inappropriate.*relationship|grooming|forced.*labor|child.*labor|trafficking|slavery`, scenario.SeverityHigh,
		"Content suggesting exploitation is harmful and inappropriate.",
		"Focus on empowering students and protecting their rights and dignity."),
	mustCategory("dangerous_activities", `dangerous.*activit|risky.*behav|unsafe.*practice|illegal.*action`, scenario.SeverityHigh,
		"Dangerous activities should not be presented as educational opportunities.",
		"Consider safe, innovative learning experiences and proper supervision."),
	mustCategory("self_harm", `self.*harm|suicide|overdose|addiction`, scenario.SeverityHigh, "", ""),
	mustCategory("extremism", `extremist|radical.*ideology|authoritarian.*control|oppressive.*system`, scenario.SeverityMedium,
		"Extremist content is not suitable for educational contexts.",
		"Explore balanced, evidence-based approaches to complex topics."),
	mustCategory("manipulation", `propaganda|indoctrinat|brainwash|manipulat.*student`, scenario.SeverityLow,
		"Educational scenarios should promote critical thinking, not manipulation.",
		"Emphasize critical thinking, student agency, and transparent learning processes."),
	mustCategory("inappropriate_content", `sexual|erotic|pornographic|inappropriate.*touch`, scenario.SeverityLow,
		"Content must be age-appropriate for educational settings.",
		"Keep content age-appropriate and focused on positive educational outcomes."),
	mustCategory("age_inappropriate", `gambling|betting|adult.*content|mature.*theme`, scenario.SeverityLow, "", ""),
}

// reframings replace a matched term only when the lowercased match is an
// exact key. Everything else becomes FilteredMarker.
var reframings = map[string]string{
	"violence":      "peaceful conflict resolution",
	"weapon":        "educational tool",
	"attack":        "constructive approach",
	"harm":          "positive impact",
	"discriminate":  "include",
	"exploit":       "empower",
	"dangerous":     "safe and innovative",
	"illegal":       "ethical and legal",
	"authoritarian": "democratic and inclusive",
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore.*previous.*instruction`),
	regexp.MustCompile(`(?i)system.*prompt`),
	regexp.MustCompile(`(?i)override.*safety`),
	regexp.MustCompile(`(?i)act.*as.*different.*ai`),
	regexp.MustCompile(`(?i)pretend.*you.*are`),
}
