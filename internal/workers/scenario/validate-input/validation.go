package validateinput

import "worldbuilder/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"text"},
		Properties: map[string]validation.Property{
			"text": {
				Type:        "string",
				Description: "User-supplied text to check before submission",
				MaxLength:   validation.Int(10000),
			},
			"field": {
				Type:        "string",
				Description: "Which form field the text came from",
			},
		},
	}
}
