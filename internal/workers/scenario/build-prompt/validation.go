package buildprompt

import (
	"worldbuilder/internal/common/validation"
	"worldbuilder/internal/scenario"
)

// GetInputSchema accepts the generation fields; previousScenario and
// feedback switch the job to a refinement.
func GetInputSchema() validation.JSONSchema {
	return scenario.RequestSchema()
}
