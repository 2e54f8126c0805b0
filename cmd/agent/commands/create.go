package commands

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/basesociety/cmd/agent/templates"
	"github.com/NethermindEth/basesociety/core"
	"github.com/spf13/cobra"
)

var (
	createTemplateName string
	createAgentID      string
	createTokenID      string
	createAgentName    string
	createPersonality  string
	createDesires      string
	createSkills       string
)

// CreateCmd represents the create command
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Launch a new agent",
	Long:  `Launch a new agent from a template or with custom parameters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOwnerFlag(); err != nil {
			return err
		}

		profile, err := buildProfile()
		if err != nil {
			return err
		}

		req := map[string]interface{}{
			"agent_id":      createAgentID,
			"owner_address": ownerAddress,
			"token_id":      createTokenID,
			"profile":       profile,
		}
		var id string
		if err := newAPIClient().do(cmd.Context(), "POST", "/agents", req, &id); err != nil {
			return err
		}

		fmt.Printf("Agent launched successfully!\n")
		fmt.Printf("Agent ID: %s\n", id)
		if createTokenID != "" {
			fmt.Printf("Token ID: %s\n", createTokenID)
		}
		return nil
	},
}

func init() {
	CreateCmd.Flags().StringVar(&createTemplateName, "template", "", "Template name to use")
	CreateCmd.Flags().StringVar(&createAgentID, "id", "", "Agent id (generated when empty)")
	CreateCmd.Flags().StringVar(&createTokenID, "token", "", "AgentNFT token id")
	CreateCmd.Flags().StringVar(&createAgentName, "name", "", "Agent name")
	CreateCmd.Flags().StringVar(&createPersonality, "personality", "", "Agent personality")
	CreateCmd.Flags().StringVar(&createDesires, "desires", "", "What the agent wants")
	CreateCmd.Flags().StringVar(&createSkills, "skills", "", "Comma-separated list of skills")
}

// buildProfile starts from the template, if any, and applies flag overrides.
func buildProfile() (core.AgentProfile, error) {
	var profile core.AgentProfile
	if createTemplateName != "" {
		template, err := templates.NewTemplateRegistry().GetTemplate(createTemplateName)
		if err != nil {
			return profile, fmt.Errorf("load template %q: %w", createTemplateName, err)
		}
		profile = template.ToProfile()
	}

	if createAgentName != "" {
		profile.Name = createAgentName
	}
	if createPersonality != "" {
		profile.Personality = createPersonality
	}
	if createDesires != "" {
		profile.Desires = createDesires
	}
	if createSkills != "" {
		profile.Skills = splitList(createSkills)
	}

	if profile.Name == "" {
		return profile, fmt.Errorf("agent name is required (use --name or --template)")
	}
	if profile.Personality == "" {
		return profile, fmt.Errorf("personality is required (use --personality or --template)")
	}
	return profile, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
