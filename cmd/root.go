package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the google-mcp application
var rootCmd = &cobra.Command{
	Use:   "google-mcp",
	Short: "MCP server for Gmail, Calendar and Google Search",
	Long: `google-mcp is an MCP (Model Context Protocol) server that exposes Gmail,
Google Calendar and Google Search operations as tools for AI assistants.

Google API access is authorized per session through an OAuth2 flow with
incremental scope escalation: tools that need a scope the session does not
hold yet return an authorization URL instead of failing.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "google-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
