package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/tasktracker/cmd/tasktracker/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tasktracker",
		Short: "TaskTracker terminal client",
		Long:  `TaskTracker is a terminal dashboard for the TaskTracker REST API: sign in, manage your tasks, and watch your completion stats.`,
	}

	rootCmd.PersistentFlags().String("config", "", "path to config file")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides config)")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewWhoamiCommand())

	// Bare invocation launches the dashboard.
	rootCmd.RunE = commands.NewRunCommand().RunE

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
