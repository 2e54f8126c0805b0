package commands

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/NethermindEth/basesociety/core"
	"github.com/spf13/cobra"
)

// InteractCmd sends a prompt to an agent.
var InteractCmd = &cobra.Command{
	Use:   "interact <agent-id> <prompt>",
	Short: "Talk to an agent",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.Join(args[1:], " ")
		var reply struct {
			Response string `json:"response"`
		}
		path := "/agents/" + url.PathEscape(args[0]) + "/interact"
		if err := newAPIClient().do(cmd.Context(), "POST", path, map[string]string{"prompt": prompt}, &reply); err != nil {
			return err
		}
		fmt.Println(reply.Response)
		return nil
	},
}

// HistoryCmd prints an agent's conversation. Owner only.
var HistoryCmd = &cobra.Command{
	Use:   "history <agent-id>",
	Short: "Show an agent's conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireOwnerFlag(); err != nil {
			return err
		}
		var history []core.Message
		path := "/agents/" + url.PathEscape(args[0]) + "/history"
		if err := newAPIClient().do(cmd.Context(), "GET", path, nil, &history); err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Println("No messages yet.")
			return nil
		}
		for _, msg := range history {
			fmt.Printf("[%s] %s/%s: %s\n", msg.Timestamp.Local().Format(time.DateTime), msg.Origin, msg.Role, msg.Content)
		}
		return nil
	},
}

// DeleteCmd stops an agent and removes it.
var DeleteCmd = &cobra.Command{
	Use:   "delete <agent-id>",
	Short: "Delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAPIClient().do(cmd.Context(), "DELETE", "/agents/"+url.PathEscape(args[0]), nil, nil); err != nil {
			return err
		}
		fmt.Printf("Agent %s deleted.\n", args[0])
		return nil
	},
}
