package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/NethermindEth/basesociety/core"
)

// AgentTemplate defines a reusable agent profile.
type AgentTemplate struct {
	Name        string   `json:"name"`
	Personality string   `json:"personality"`
	Desires     string   `json:"desires"`
	Skills      []string `json:"skills"`
	Description string   `json:"description"`
}

// TemplateRegistry manages agent templates stored as JSON files.
type TemplateRegistry struct {
	templatesDir string
}

// NewTemplateRegistry uses ~/.basesociety/templates.
func NewTemplateRegistry() *TemplateRegistry {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewTemplateRegistryAt(filepath.Join(homeDir, ".basesociety", "templates"))
}

// NewTemplateRegistryAt uses dir, creating it if needed.
func NewTemplateRegistryAt(dir string) *TemplateRegistry {
	os.MkdirAll(dir, 0755)
	return &TemplateRegistry{templatesDir: dir}
}

// SaveTemplate saves a template to the filesystem
func (r *TemplateRegistry) SaveTemplate(name string, template *AgentTemplate) error {
	if err := validName(name); err != nil {
		return err
	}
	templateData, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path(name), templateData, 0644)
}

// GetTemplate loads a template from the filesystem
func (r *TemplateRegistry) GetTemplate(name string) (*AgentTemplate, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	templateData, err := os.ReadFile(r.path(name))
	if err != nil {
		return nil, err
	}

	var template AgentTemplate
	if err := json.Unmarshal(templateData, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// ListTemplates returns all available template names, sorted.
func (r *TemplateRegistry) ListTemplates() ([]string, error) {
	entries, err := os.ReadDir(r.templatesDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// ToProfile converts a template to the profile sent on launch.
func (t *AgentTemplate) ToProfile() core.AgentProfile {
	return core.AgentProfile{
		Name:        t.Name,
		Personality: t.Personality,
		Desires:     t.Desires,
		Skills:      append([]string(nil), t.Skills...),
	}
}

func (r *TemplateRegistry) path(name string) string {
	return filepath.Join(r.templatesDir, name+".json")
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid template name %q", name)
	}
	return nil
}
