package sanitizeinput

import "worldbuilder/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"text"},
		Properties: map[string]validation.Property{
			"text": {
				Type:        "string",
				Description: "Free text to rewrite before it is embedded in a prompt",
			},
		},
	}
}
