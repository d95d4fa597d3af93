package generatescenario

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"worldbuilder/internal/common/errors"
	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/scenario"
	"worldbuilder/internal/scenario/gateway"
	"worldbuilder/internal/scenario/refdata"
	"worldbuilder/internal/scenario/service"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, kind, prompt, region string, tf scenario.TimeFrame) *scenario.Scenario {
	args := m.Called(ctx, kind, prompt, region, tf)
	return args.Get(0).(*scenario.Scenario)
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string) (string, error) {
	return "", &gateway.GatewayError{StatusCode: 529, Message: "overloaded"}
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "scenario-generation",
		ElementId:          "Activity_GenerateScenario",
		CustomHeaders:      "{}",
		Retries:            2,
		Variables:          string(variablesJSON),
	}}
}

func newTestHandler(t *testing.T, svc Completer) *Handler {
	h, err := NewHandler(HandlerOptions{Service: svc, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func TestConfig_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.MaxJobsActive)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
}

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, new(MockCompleter))

	in, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"prompt": "p", "region": "India", "timeFrame": "2055", "refinement": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, &Input{Prompt: "p", Region: "India", TimeFrame: scenario.Far, Refinement: true}, in)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{"prompt": "", "region": "India", "timeFrame": "2055"}))
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInputValidationFailed, stdErr.Code)

	_, err = h.parseInput(createMockJob(3, map[string]interface{}{"prompt": "p", "region": "India", "timeFrame": "2100"}))
	stdErr, ok = errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTimeFrameNotFound, stdErr.Code)
}

func TestHandler_Execute(t *testing.T) {
	generatedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := new(MockCompleter)
	svc.On("Complete", mock.Anything, "refine", "p", "Haiti", scenario.Mid).Return(&scenario.Scenario{
		ID: "id-1", Text: "Jean teaches robots.", GeneratedAt: generatedAt,
	})

	out, err := newTestHandler(t, svc).Execute(context.Background(), &Input{Prompt: "p", Region: "Haiti", TimeFrame: scenario.Mid, Refinement: true})
	require.NoError(t, err)
	assert.Equal(t, &Output{ScenarioID: "id-1", Scenario: "Jean teaches robots.", GeneratedAt: generatedAt}, out)
	svc.AssertExpectations(t)
}

func TestHandler_Execute_FallsBackToDemo(t *testing.T) {
	store := refdata.MustLoad()
	svc := service.New(service.Options{Store: store, Generator: failingGenerator{}, Logger: logger.NewTestLogger(t)})

	out, err := newTestHandler(t, svc).Execute(context.Background(), &Input{Prompt: "p", Region: "Kenya", TimeFrame: scenario.Mid})
	require.NoError(t, err)
	assert.True(t, out.Demo)
	assert.Equal(t, string(errors.ErrCodeGatewayRequestFailed), out.FallbackReason)
	assert.NotEmpty(t, out.ScenarioID)

	demo, _ := store.DemoScenario("Kenya", "2045")
	assert.Equal(t, strings.TrimSpace(demo), out.Scenario)
}
