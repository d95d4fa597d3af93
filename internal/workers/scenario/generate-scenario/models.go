package generatescenario

import (
	"context"
	"time"

	"worldbuilder/internal/scenario"
)

type Input struct {
	Prompt     string
	Region     string
	TimeFrame  scenario.TimeFrame
	Refinement bool
}

type Output struct {
	ScenarioID     string    `json:"scenarioId"`
	Scenario       string    `json:"scenario"`
	Demo           bool      `json:"demo"`
	FallbackReason string    `json:"fallbackReason,omitempty"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// Completer sends a prompt to the gateway and returns the cleaned scenario.
type Completer interface {
	Complete(ctx context.Context, kind, prompt, region string, tf scenario.TimeFrame) *scenario.Scenario
}
