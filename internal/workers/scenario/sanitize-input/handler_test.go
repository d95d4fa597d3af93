package sanitizeinput

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

	"worldbuilder/internal/common/config"
	"worldbuilder/internal/common/errors"
	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/scenario"
	"worldbuilder/internal/scenario/safety"
)

type MockSanitizer struct {
	mock.Mock
}

func (m *MockSanitizer) SanitizeInput(text string) scenario.SanitizationResult {
	args := m.Called(text)
	return args.Get(0).(scenario.SanitizationResult)
}

type realSanitizer struct{}

func (realSanitizer) SanitizeInput(text string) scenario.SanitizationResult { return safety.Sanitize(text) }

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "scenario-generation",
		ElementId:          "Activity_SanitizeInput",
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func newTestHandler(t *testing.T, svc Sanitizer) *Handler {
	h, err := NewHandler(HandlerOptions{Service: svc, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	return h
}

func TestHandler_NewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a scenario service")

	_, err = NewHandler(HandlerOptions{Service: realSanitizer{}, CustomConfig: &Config{MaxJobsActive: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout must be positive")

	h, err := NewHandler(HandlerOptions{Service: realSanitizer{}})
	require.NoError(t, err)
	assert.Equal(t, TaskType, h.GetTaskType())
	assert.True(t, h.IsEnabled())
}

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, realSanitizer{})

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{"text": "hello", "processId": "p-1"}))
	require.NoError(t, err)
	assert.Equal(t, "hello", input.Text)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{}))
	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInputValidationFailed, stdErr.Code)
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantModified bool
		wantCategory string
		check        func(t *testing.T, out *Output)
	}{
		{
			name: "clean text passes through",
			text: "  students share a garden  ",
			check: func(t *testing.T, out *Output) {
				assert.Equal(t, "students share a garden", out.SanitizedText)
				assert.NotNil(t, out.Warnings)
				assert.Empty(t, out.Warnings)
			},
		},
		{
			name:         "prohibited term reframed",
			text:         "students build a weapon",
			wantModified: true,
			wantCategory: "violence",
			check: func(t *testing.T, out *Output) {
				assert.NotContains(t, out.SanitizedText, "weapon")
			},
		},
		{
			name:         "long text truncated",
			text:         strings.Repeat("a", 1200),
			wantModified: true,
			wantCategory: safety.CategoryLength,
			check: func(t *testing.T, out *Output) {
				assert.Equal(t, 1000+len(safety.TruncationMark), len(out.SanitizedText))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newTestHandler(t, realSanitizer{}).Execute(context.Background(), &Input{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.wantModified, out.WasModified)
			if tt.wantCategory != "" {
				require.NotEmpty(t, out.Warnings)
				assert.Equal(t, tt.wantCategory, out.Warnings[0].Category)
			}
			tt.check(t, out)
		})
	}
}

func TestHandler_Execute_NilWarningsBecomeEmpty(t *testing.T) {
	svc := new(MockSanitizer)
	svc.On("SanitizeInput", "x").Return(scenario.SanitizationResult{Sanitized: "x"})

	out, err := newTestHandler(t, svc).Execute(context.Background(), &Input{Text: "x"})
	require.NoError(t, err)
	assert.NotNil(t, out.Warnings)
	svc.AssertExpectations(t)
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	cfg := createConfigFromAppConfig(&config.Config{Workers: map[string]config.WorkerConfig{
		ConfigKey: {Enabled: true, MaxJobsActive: 7, Timeout: 1000},
	}}, nil)
	assert.Equal(t, 7, cfg.MaxJobsActive)
	assert.Equal(t, time.Second, cfg.Timeout)
}
