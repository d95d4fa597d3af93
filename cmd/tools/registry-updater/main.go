// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"worldbuilder/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	var registryPath string
	for _, fs := range []*flag.FlagSet{addCmd, updateCmd, validateCmd, listCmd} {
		fs.StringVar(&registryPath, "path", defaultRegistryPath, "Path to registry file")
	}

	idAdd := addCmd.String("id", "", "Activity ID (e.g., build-prompt)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Build Prompt)")
	description := addCmd.String("description", "", "Description")
	category := addCmd.String("category", "scenario", "Category")
	taskType := addCmd.String("taskType", "", "Zeebe task type (e.g., scenario.build-prompt)")
	version := addCmd.String("version", "1.0.0", "Version")
	implStatus := addCmd.String("status", registry.StatusPlanned, "Implementation Status (planned, in-progress, completed, verified)")

	idUpdate := updateCmd.String("id", "", "Activity ID to update")
	field := updateCmd.String("field", "", "Field to update (status, version, etc.)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *description == "" || *taskType == "" {
			fmt.Println("Error: id, displayName, description, and taskType are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		err = addActivity(registryPath, registry.Activity{
			ID:                   *idAdd,
			DisplayName:          *displayName,
			Description:          *description,
			Category:             *category,
			Version:              *version,
			TaskType:             *taskType,
			ConfigKey:            strings.ReplaceAll(*taskType, ".", "-"),
			ImplementationStatus: *implStatus,
			InputSchema:          map[string]interface{}{"type": "object"},
			OutputSchema:         map[string]interface{}{"type": "object"},
			ErrorCodes:           []string{},
			Timeout:              "5s",
			Tags:                 []string{},
		})
		if err == nil {
			fmt.Printf("Added activity: %s\n", *idAdd)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err = updateActivity(registryPath, *idUpdate, *field, *value)
		if err == nil {
			fmt.Printf("Updated activity %s, field %s to %s\n", *idUpdate, *field, *value)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		var reg *registry.ActivityRegistry
		if reg, err = registry.LoadRegistry(registryPath); err == nil {
			if err = reg.Validate(); err == nil {
				fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
			}
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		var reg *registry.ActivityRegistry
		if reg, err = registry.LoadRegistry(registryPath); err == nil {
			for _, a := range reg.Activities {
				fmt.Printf("%-20s %-30s %-12s %s\n", a.ID, a.TaskType, a.ImplementationStatus, a.Timeout)
			}
		}

	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func addActivity(path string, activity registry.Activity) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{Version: "1.0.0", Process: "scenario-generation"}
	}

	if reg.Find(activity.ID) != nil {
		return fmt.Errorf("activity with ID %s already exists", activity.ID)
	}
	reg.Activities = append(reg.Activities, activity)

	if err := reg.Validate(); err != nil {
		return err
	}
	return registry.Save(reg, path)
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	a := reg.Find(id)
	if a == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
		a.ConfigKey = strings.ReplaceAll(value, ".", "-")
	case "timeout":
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	if err := reg.Validate(); err != nil {
		return err
	}
	return registry.Save(reg, path)
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new activity to the registry
  update   Update an existing activity's field
  validate Validate the registry file
  list     Print one line per activity
  help     Show this help message

Examples:
  registry-updater add -id build-prompt -displayName "Build Prompt" -description "Assembles the prompt" -taskType scenario.build-prompt
  registry-updater update -id build-prompt -field status -value verified
  registry-updater validate -path configs/activity-registry.json

Use 'registry-updater <command> -h' for more information about a command.
`)
}
