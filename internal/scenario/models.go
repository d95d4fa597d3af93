// Package scenario holds the value types shared by the scenario pipeline:
// requests, feedback and the results of the safety checks.
package scenario

import (
	"fmt"
	"strings"
	"time"

	"worldbuilder/internal/common/errors"
)

// TimeFrame is the ordered novelty tier of a scenario.
type TimeFrame int

const (
	Near TimeFrame = iota + 1
	Mid
	Far
)

var timeFrameYears = map[TimeFrame]string{
	Near: "2035",
	Mid:  "2045",
	Far:  "2055",
}

// Year is the reference-data key for the time frame.
func (t TimeFrame) Year() string {
	return timeFrameYears[t]
}

func (t TimeFrame) String() string {
	switch t {
	case Near:
		return "near"
	case Mid:
		return "mid"
	case Far:
		return "far"
	default:
		return fmt.Sprintf("TimeFrame(%d)", int(t))
	}
}

func (t TimeFrame) Valid() bool {
	_, ok := timeFrameYears[t]
	return ok
}

// ParseTimeFrame accepts a year label ("2045") or a tier name ("mid").
func ParseTimeFrame(s string) (TimeFrame, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for tf, year := range timeFrameYears {
		if v == year || v == tf.String() {
			return tf, nil
		}
	}
	return 0, errors.NewTimeFrameNotFoundError(s)
}

// Mode selects whether the prompt draws on the region's research insights.
type Mode string

const (
	FreshScenario Mode = "freshScenario"
	ResearchBased Mode = "researchBased"
)

// ParseMode defaults to FreshScenario for anything but "researchBased".
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ResearchBased)) {
		return ResearchBased
	}
	return FreshScenario
}

const (
	MinLearnerAge = 3
	MaxLearnerAge = 99
)

type GenerationRequest struct {
	Region          string
	TimeFrame       TimeFrame
	LearnerAge      *int
	Mode            Mode
	CustomDirection string
}

type FeedbackPair struct {
	Liked    string `json:"liked"`
	Disliked string `json:"disliked"`
}

// Empty reports whether neither field carries text.
func (f FeedbackPair) Empty() bool {
	return strings.TrimSpace(f.Liked) == "" && strings.TrimSpace(f.Disliked) == ""
}

type RefinementRequest struct {
	Region           string
	TimeFrame        TimeFrame
	LearnerAge       *int
	Mode             Mode
	PreviousScenario string
	Feedback         FeedbackPair
}

type Warning struct {
	Category     string   `json:"category"`
	MatchedTerms []string `json:"matchedTerms,omitempty"`
	Message      string   `json:"message"`
}

type SanitizationResult struct {
	Sanitized   string    `json:"sanitizedText"`
	Warnings    []Warning `json:"warnings"`
	WasModified bool      `json:"wasModified"`
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Issue struct {
	Category string   `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type SafetyVerdict struct {
	IsSafe      bool     `json:"isSafe"`
	Issues      []Issue  `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// Scenario is one generated narrative as returned to callers.
type Scenario struct {
	ID             string    `json:"id"`
	Region         string    `json:"region"`
	TimeFrame      string    `json:"timeFrame"`
	LearnerAge     *int      `json:"learnerAge,omitempty"`
	Mode           Mode      `json:"mode"`
	Text           string    `json:"scenario"`
	Demo           bool      `json:"demo"`
	FallbackReason string    `json:"fallbackReason,omitempty"`
	Refined        bool      `json:"refined"`
	GeneratedAt    time.Time `json:"generatedAt"`
}
