package main

import (
	"fmt"
	"os"

	"github.com/NethermindEth/basesociety/cmd/agent/commands"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "agent-cli",
	Short:         "BaseSociety Agent CLI",
	Long:          `Command line interface for launching and talking to BaseSociety agents.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	commands.Register(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
