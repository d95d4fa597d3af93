package scenario

import (
	"encoding/json"

	"worldbuilder/internal/common/errors"
	"worldbuilder/internal/common/validation"
)

// RequestFields is the wire form of a generation or refinement request, as
// posted to the HTTP API or carried in process variables.
type RequestFields struct {
	Region              string        `json:"region"`
	TimeFrame           string        `json:"timeFrame"`
	LearnerAge          *int          `json:"learnerAge,omitempty"`
	Mode                string        `json:"mode,omitempty"`
	UseExistingScenario *bool         `json:"useExistingScenario,omitempty"`
	CustomDirection     string        `json:"customDirection,omitempty"`
	PreviousScenario    string        `json:"previousScenario,omitempty"`
	Feedback            *FeedbackPair `json:"feedback,omitempty"`
}

// DecodeRequestFields converts schema-validated variables into RequestFields.
func DecodeRequestFields(vars map[string]interface{}) (RequestFields, error) {
	var f RequestFields
	raw, err := json.Marshal(vars)
	if err != nil {
		return f, errors.NewInputParsingError(err)
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, errors.NewInputParsingError(err)
	}
	return f, nil
}

// IsRefinement reports whether the fields describe a refinement.
func (f RequestFields) IsRefinement() bool {
	return f.PreviousScenario != "" || f.Feedback != nil
}

// ResolvedMode prefers an explicit mode and falls back to the legacy
// useExistingScenario flag.
func (f RequestFields) ResolvedMode() Mode {
	if f.Mode != "" {
		return ParseMode(f.Mode)
	}
	if f.UseExistingScenario != nil && *f.UseExistingScenario {
		return ResearchBased
	}
	return FreshScenario
}

func (f RequestFields) Generation() (GenerationRequest, error) {
	tf, err := ParseTimeFrame(f.TimeFrame)
	if err != nil {
		return GenerationRequest{}, err
	}
	return GenerationRequest{
		Region:          f.Region,
		TimeFrame:       tf,
		LearnerAge:      f.LearnerAge,
		Mode:            f.ResolvedMode(),
		CustomDirection: f.CustomDirection,
	}, nil
}

func (f RequestFields) Refinement() (RefinementRequest, error) {
	tf, err := ParseTimeFrame(f.TimeFrame)
	if err != nil {
		return RefinementRequest{}, err
	}
	req := RefinementRequest{
		Region:           f.Region,
		TimeFrame:        tf,
		LearnerAge:       f.LearnerAge,
		Mode:             f.ResolvedMode(),
		PreviousScenario: f.PreviousScenario,
	}
	if f.Feedback != nil {
		req.Feedback = *f.Feedback
	}
	return req, nil
}

func requestProperties() map[string]validation.Property {
	return map[string]validation.Property{
		"region":              {Type: "string", Description: "Region key", MinLength: validation.Int(1)},
		"timeFrame":           {Type: "string", Description: "2035, 2045, 2055 or near, mid, far", MinLength: validation.Int(1)},
		"learnerAge":          {Type: "integer", Minimum: validation.Float(MinLearnerAge), Maximum: validation.Float(MaxLearnerAge)},
		"mode":                {Type: "string", Enum: []string{string(FreshScenario), string(ResearchBased)}},
		"useExistingScenario": {Type: "boolean"},
		"customDirection":     {Type: "string", MaxLength: validation.Int(5000)},
		"previousScenario":    {Type: "string"},
		"feedback": {
			Type: "object",
			Properties: map[string]validation.Property{
				"liked":    {Type: "string"},
				"disliked": {Type: "string"},
			},
		},
	}
}

// RequestSchema accepts generation fields plus the optional refinement ones.
func RequestSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:       "object",
		Required:   []string{"region", "timeFrame"},
		Properties: requestProperties(),
	}
}

// RefinementSchema also requires the previous scenario and feedback.
func RefinementSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:       "object",
		Required:   []string{"region", "timeFrame", "previousScenario", "feedback"},
		Properties: requestProperties(),
	}
}
