// Package main provides the entry point for the mdmirror CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for mdmirror.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdmirror",
		Short: "Mirror documentation sites as Markdown",
		Long: `mdmirror mirrors documentation sites as local Markdown trees.

It crawls a site from a start URL, converts every discovered page to
Markdown through the Jina Reader API, rewrites links between mirrored
pages so the local tree is browsable offline, and records each run in
a local history database.

Set JINA_AI_API_KEY to raise the Reader API rate limit.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewMirrorCmd())
	cmd.AddCommand(NewLinksCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
