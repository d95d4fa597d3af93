package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"worldbuilder/internal/common/errors"
	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/common/validation"
	"worldbuilder/internal/scenario"
	"worldbuilder/internal/scenario/refdata"
	"worldbuilder/internal/scenario/service"
)

// ScenarioService is the part of service.Service the handlers use.
type ScenarioService interface {
	Generate(ctx context.Context, req scenario.GenerationRequest) (*scenario.Scenario, error)
	Refine(ctx context.Context, req scenario.RefinementRequest) (*scenario.Scenario, error)
	CheckInput(text string) scenario.SafetyVerdict
	SanitizeInput(text string) scenario.SanitizationResult
	Store() *refdata.Store
}

type ScenarioHandler struct {
	service ScenarioService
	logger  logger.Logger
}

func NewScenarioHandler(svc ScenarioService, log logger.Logger) *ScenarioHandler {
	return &ScenarioHandler{service: svc, logger: log}
}

var textSchema = validation.JSONSchema{
	Type:     "object",
	Required: []string{"text"},
	Properties: map[string]validation.Property{
		"text": {Type: "string"},
	},
}

type textBody struct {
	Text string `json:"text"`
}

// POST /api/generate-scenario
func (h *ScenarioHandler) GenerateScenario(c *gin.Context) {
	fields, ok := h.bindRequest(c, scenario.RequestSchema())
	if !ok {
		return
	}
	req, err := fields.Generation()
	if err != nil {
		h.writeError(c, err)
		return
	}

	sc, err := h.service.Generate(h.requestContext(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

// POST /api/refine-scenario
func (h *ScenarioHandler) RefineScenario(c *gin.Context) {
	fields, ok := h.bindRequest(c, scenario.RefinementSchema())
	if !ok {
		return
	}
	req, err := fields.Refinement()
	if err != nil {
		h.writeError(c, err)
		return
	}

	sc, err := h.service.Refine(h.requestContext(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

// POST /api/validate-input
func (h *ScenarioHandler) ValidateInput(c *gin.Context) {
	body, ok := h.bindText(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.CheckInput(body.Text))
}

// POST /api/sanitize-input
func (h *ScenarioHandler) SanitizeInput(c *gin.Context) {
	body, ok := h.bindText(c)
	if !ok {
		return
	}
	result := h.service.SanitizeInput(body.Text)
	if result.Warnings == nil {
		result.Warnings = []scenario.Warning{}
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/regions
func (h *ScenarioHandler) ListRegions(c *gin.Context) {
	store := h.service.Store()
	keys := store.Regions()
	regions := make([]refdata.Region, 0, len(keys))
	for _, key := range keys {
		if r, ok := store.Region(key); ok {
			regions = append(regions, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"regions": regions})
}

// GET /api/regions/:region
func (h *ScenarioHandler) GetRegion(c *gin.Context) {
	key := c.Param("region")
	r, ok := h.service.Store().Region(key)
	if !ok {
		h.writeError(c, errors.NewRegionNotFoundError(key))
		return
	}
	c.JSON(http.StatusOK, r)
}

// GET /api/time-frames
func (h *ScenarioHandler) ListTimeFrames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"timeFrames": h.service.Store().TimeFrames()})
}

// GET /api/age-context?age=N
func (h *ScenarioHandler) AgeContext(c *gin.Context) {
	age, err := strconv.Atoi(c.Query("age"))
	if err != nil || age < scenario.MinLearnerAge || age > scenario.MaxLearnerAge {
		h.writeError(c, errors.NewInputValidationError([]string{"age must be an integer between 3 and 99"}))
		return
	}
	band, ok := h.service.Store().AgeContext(age)
	if !ok {
		h.writeError(c, errors.NewInputValidationError([]string{"no age band covers " + strconv.Itoa(age)}))
		return
	}
	c.JSON(http.StatusOK, gin.H{"age": age, "context": band})
}

func (h *ScenarioHandler) requestContext(c *gin.Context) context.Context {
	return service.WithClientKey(c.Request.Context(), c.ClientIP())
}

func (h *ScenarioHandler) bindRequest(c *gin.Context, schema validation.JSONSchema) (scenario.RequestFields, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		h.writeError(c, errors.NewInputParsingError(err))
		return scenario.RequestFields{}, false
	}
	input, result := validation.ValidateJSON(raw, schema)
	if !result.Valid {
		h.writeError(c, errors.NewInputValidationError(result.GetErrorMessages()))
		return scenario.RequestFields{}, false
	}
	fields, err := scenario.DecodeRequestFields(input)
	if err != nil {
		h.writeError(c, err)
		return scenario.RequestFields{}, false
	}
	return fields, true
}

func (h *ScenarioHandler) bindText(c *gin.Context) (textBody, bool) {
	var body textBody
	raw, err := c.GetRawData()
	if err != nil {
		h.writeError(c, errors.NewInputParsingError(err))
		return body, false
	}
	input, result := validation.ValidateJSON(raw, textSchema)
	if !result.Valid {
		h.writeError(c, errors.NewInputValidationError(result.GetErrorMessages()))
		return body, false
	}
	body.Text, _ = input["text"].(string)
	return body, true
}

// writeError maps a StandardError onto a status and a JSON body. Metadata
// such as the safety verdict is copied into the body.
func (h *ScenarioHandler) writeError(c *gin.Context, err error) {
	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)

	body := gin.H{
		"error": stdErr.Message,
		"code":  stdErr.Code,
	}
	for k, v := range stdErr.Metadata {
		body[k] = v
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", map[string]interface{}{
			"path":    c.FullPath(),
			"code":    string(stdErr.Code),
			"details": stdErr.Details,
		})
	}
	c.AbortWithStatusJSON(status, body)
}
