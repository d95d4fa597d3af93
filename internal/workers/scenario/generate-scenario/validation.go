package generatescenario

import "worldbuilder/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"prompt", "region", "timeFrame"},
		Properties: map[string]validation.Property{
			"prompt": {
				Type:        "string",
				Description: "Prompt produced by scenario.build-prompt",
				MinLength:   validation.Int(1),
			},
			"region": {
				Type:        "string",
				Description: "Region key, used to pick a demo scenario on fallback",
				MinLength:   validation.Int(1),
			},
			"timeFrame": {
				Type:        "string",
				Description: "2035, 2045, 2055 or near, mid, far",
				MinLength:   validation.Int(1),
			},
			"refinement": {
				Type:        "boolean",
				Description: "Set by scenario.build-prompt for refinement prompts",
			},
		},
	}
}
