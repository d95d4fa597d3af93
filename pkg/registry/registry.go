// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Save stamps LastUpdated and writes reg as indented JSON.
func Save(reg *ActivityRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Find returns the activity with id, or nil.
func (r *ActivityRegistry) Find(id string) *Activity {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i]
		}
	}
	return nil
}

// Validate checks required fields and uniqueness. A config key must be the
// task type with dots replaced by dashes, since viper splits keys on dots.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, a := range r.Activities {
		switch {
		case a.ID == "":
			return fmt.Errorf("activity missing required field: ID")
		case ids[a.ID]:
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		case a.DisplayName == "":
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		case a.TaskType == "":
			return fmt.Errorf("activity %s missing required field: TaskType", a.ID)
		case taskTypes[a.TaskType]:
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		case a.Category == "":
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		case a.ConfigKey != strings.ReplaceAll(a.TaskType, ".", "-"):
			return fmt.Errorf("activity %s: config key %q does not match task type %q", a.ID, a.ConfigKey, a.TaskType)
		}
		switch a.ImplementationStatus {
		case StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified:
		default:
			return fmt.Errorf("activity %s: unknown implementation status %q", a.ID, a.ImplementationStatus)
		}
		ids[a.ID] = true
		taskTypes[a.TaskType] = true
	}
	return nil
}
