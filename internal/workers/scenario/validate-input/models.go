package validateinput

import "worldbuilder/internal/scenario"

type Input struct {
	Text  string `json:"text"`
	Field string `json:"field,omitempty"`
}

type Output struct {
	IsSafe      bool             `json:"isSafe"`
	Issues      []scenario.Issue `json:"issues"`
	Suggestions []string         `json:"suggestions"`
}

// Checker is the part of the scenario service this worker needs.
type Checker interface {
	CheckInput(text string) scenario.SafetyVerdict
}
