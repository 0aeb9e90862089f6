/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "orderbot",
	Short: "Turn free-text chat orders into structured records",
	Long: `orderbot reads order messages posted in chat groups, extracts the
customer, products, payment and delivery address, and records them.

Use "orderbot extract" to try a single message and "orderbot gateway" to
serve chat channels.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
