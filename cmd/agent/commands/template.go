package commands

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/basesociety/cmd/agent/templates"
	"github.com/spf13/cobra"
)

var (
	templateName        string
	templateAgentName   string
	templatePersonality string
	templateDesires     string
	templateSkills      string
	templateDescription string
)

// TemplateCmd represents the template command
var TemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage agent templates",
	Long:  `Create, list, and show reusable agent profiles.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return templates.NewTemplateRegistry().CreateDefaultTemplates()
	},
}

var templateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new agent template",
	RunE: func(cmd *cobra.Command, args []string) error {
		agentName := templateAgentName
		if agentName == "" {
			agentName = templateName
		}
		template := &templates.AgentTemplate{
			Name:        agentName,
			Personality: templatePersonality,
			Desires:     templateDesires,
			Skills:      splitList(templateSkills),
			Description: templateDescription,
		}
		if err := templates.NewTemplateRegistry().SaveTemplate(templateName, template); err != nil {
			return fmt.Errorf("save template: %w", err)
		}
		fmt.Printf("Template '%s' created successfully!\n", templateName)
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agent templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := templates.NewTemplateRegistry()
		names, err := registry.ListTemplates()
		if err != nil {
			return fmt.Errorf("list templates: %w", err)
		}
		if len(names) == 0 {
			fmt.Println("No templates found.")
			return nil
		}

		fmt.Println("Available templates:")
		for _, name := range names {
			template, err := registry.GetTemplate(name)
			if err != nil {
				continue
			}
			fmt.Printf("- %s (%s): %s\n", name, template.Name, template.Description)
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show template details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		template, err := templates.NewTemplateRegistry().GetTemplate(args[0])
		if err != nil {
			return fmt.Errorf("template '%s' not found", args[0])
		}

		fmt.Printf("Template: %s\n", args[0])
		fmt.Printf("Name: %s\n", template.Name)
		fmt.Printf("Personality: %s\n", template.Personality)
		fmt.Printf("Desires: %s\n", template.Desires)
		fmt.Printf("Skills: %s\n", strings.Join(template.Skills, ", "))
		if template.Description != "" {
			fmt.Printf("Description: %s\n", template.Description)
		}
		return nil
	},
}

func init() {
	TemplateCmd.AddCommand(templateCreateCmd)
	TemplateCmd.AddCommand(templateListCmd)
	TemplateCmd.AddCommand(templateShowCmd)

	templateCreateCmd.Flags().StringVar(&templateName, "name", "", "Name for the template")
	templateCreateCmd.Flags().StringVar(&templateAgentName, "agent-name", "", "Agent name (defaults to the template name)")
	templateCreateCmd.Flags().StringVar(&templatePersonality, "personality", "", "Agent personality")
	templateCreateCmd.Flags().StringVar(&templateDesires, "desires", "", "What the agent wants")
	templateCreateCmd.Flags().StringVar(&templateSkills, "skills", "", "Comma-separated list of skills")
	templateCreateCmd.Flags().StringVar(&templateDescription, "description", "", "Template description")

	templateCreateCmd.MarkFlagRequired("name")
	templateCreateCmd.MarkFlagRequired("personality")
}
