// Package cmd provides the command-line interface for inspecting recorded
// log databases.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "logwise",
	Short: "Logwise CLI tool can inspect the SQLite databases produced by " +
		"the record logger and the database tracer.",
	Long: `Logwise CLI tool can inspect the SQLite databases produced by ` +
		`the record logger and the database tracer. Currently, it supports ` +
		`listing tables and viewing recorded log lines.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
