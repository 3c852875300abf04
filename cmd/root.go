// Package cmd implements the auravoice CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "🎙"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "auravoice",
	Short: logo + " auravoice — Voice Assistant Backend",
	Long:  logo + " auravoice — the backend for a realtime voice assistant with personas, tools, and guardrails",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(statusCmd)
}
