package sanitizeinput

import "worldbuilder/internal/scenario"

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	SanitizedText string             `json:"sanitizedText"`
	Warnings      []scenario.Warning `json:"warnings"`
	WasModified   bool               `json:"wasModified"`
}

type Sanitizer interface {
	SanitizeInput(text string) scenario.SanitizationResult
}
