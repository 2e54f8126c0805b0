package commands

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/basesociety/core"
	"github.com/spf13/cobra"
)

type agentInfo struct {
	ID      string            `json:"id"`
	Profile core.AgentProfile `json:"profile"`
}

// ListCmd represents the list command
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	Long:  `List every agent running in the runtime.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var agents []agentInfo
		if err := newAPIClient().do(cmd.Context(), "GET", "/agents", nil, &agents); err != nil {
			return err
		}

		if len(agents) == 0 {
			fmt.Println("No agents found.")
			return nil
		}

		fmt.Printf("Found %d agents:\n", len(agents))
		for _, a := range agents {
			fmt.Printf("- %s (ID: %s)\n", a.Profile.Name, a.ID)
			if a.Profile.Personality != "" {
				fmt.Printf("  Personality: %s\n", a.Profile.Personality)
			}
			if a.Profile.Desires != "" {
				fmt.Printf("  Desires: %s\n", a.Profile.Desires)
			}
			if len(a.Profile.Skills) > 0 {
				fmt.Printf("  Skills: %s\n", strings.Join(a.Profile.Skills, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}
