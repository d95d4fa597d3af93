package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldbuilder/internal/common/config"
	buildprompt "worldbuilder/internal/workers/scenario/build-prompt"
	generatescenario "worldbuilder/internal/workers/scenario/generate-scenario"
	sanitizeinput "worldbuilder/internal/workers/scenario/sanitize-input"
	validateinput "worldbuilder/internal/workers/scenario/validate-input"
)

func TestCheckedInRegistryMatchesWorkers(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	want := map[string]string{
		validateinput.TaskType:    validateinput.ConfigKey,
		sanitizeinput.TaskType:    sanitizeinput.ConfigKey,
		buildprompt.TaskType:      buildprompt.ConfigKey,
		generatescenario.TaskType: generatescenario.ConfigKey,
	}
	got := map[string]string{}
	for _, a := range reg.Activities {
		got[a.TaskType] = a.ConfigKey
	}
	assert.Equal(t, want, got)

	cfg, err := config.LoadFromFile(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	for _, key := range want {
		assert.Contains(t, cfg.Workers, key)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Activity {
		return Activity{
			ID:                   "build-prompt",
			DisplayName:          "Build Prompt",
			Category:             "scenario",
			TaskType:             "scenario.build-prompt",
			ConfigKey:            "scenario-build-prompt",
			ImplementationStatus: StatusCompleted,
		}
	}

	tests := []struct {
		name    string
		mutate  func(a *Activity)
		wantErr string
	}{
		{"valid", func(*Activity) {}, ""},
		{"missing display name", func(a *Activity) { a.DisplayName = "" }, "DisplayName"},
		{"dotted config key", func(a *Activity) { a.ConfigKey = a.TaskType }, "does not match"},
		{"unknown status", func(a *Activity) { a.ImplementationStatus = "done" }, "implementation status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid()
			tt.mutate(&a)
			err := (&ActivityRegistry{Activities: []Activity{a}}).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	a := valid()
	err := (&ActivityRegistry{Activities: []Activity{a, a}}).Validate()
	assert.ErrorContains(t, err, "duplicate activity ID")

	assert.ErrorContains(t, (&ActivityRegistry{}).Validate(), "no activities")
}

func TestSaveAndFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	reg := &ActivityRegistry{Version: "1.0.0", Activities: []Activity{{ID: "a", TaskType: "scenario.a"}}}
	require.NoError(t, Save(reg, path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.NotEmpty(t, loaded.LastUpdated)
	require.NotNil(t, loaded.Find("a"))
	assert.Equal(t, "scenario.a", loaded.Find("a").TaskType)
	assert.Nil(t, loaded.Find("b"))
}
