package llm

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.yml
var promptFS embed.FS

// promptFile is the on-disk shape of a prompt template.
type promptFile struct {
	Role string `yaml:"ROLE"`
}

// PlanningPrompt returns the planner's system prompt.
func PlanningPrompt() (string, error) {
	return loadPrompt("planning")
}

// loadPrompt reads the ROLE text of an embedded prompt template by base name
// (e.g. "summary" for prompts/summary.yml).
func loadPrompt(name string) (string, error) {
	data, err := promptFS.ReadFile("prompts/" + name + ".yml")
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", name, err)
	}

	var pf promptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", name, err)
	}
	if pf.Role == "" {
		return "", fmt.Errorf("prompt %s has no ROLE", name)
	}
	return pf.Role, nil
}
