package buildprompt

import (
	"context"

	"worldbuilder/internal/scenario"
)

type Input struct {
	Fields scenario.RequestFields
}

type Output struct {
	Prompt       string `json:"prompt"`
	PromptLength int    `json:"promptLength"`
	Refinement   bool   `json:"refinement"`
}

type PromptBuilder interface {
	BuildPrompt(ctx context.Context, req scenario.GenerationRequest) (string, error)
	BuildRefinementPrompt(ctx context.Context, req scenario.RefinementRequest) (string, error)
}
