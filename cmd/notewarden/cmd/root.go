package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is the release version, overridden at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "notewarden",
	Short: "Notewarden is a community-notes moderation bot",
	Long: `A chat-platform bot for collaborative community notes: browse note
requests, rate pending notes, draft notes through modals, and
force-publish with a confirmation step.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
