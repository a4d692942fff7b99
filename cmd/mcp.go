package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liftscope/liftscope/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server over the stored channel data",
	Long: `Run a Model Context Protocol (MCP) server that exposes the stored
channel data and rollups as tools.

Available tools:
- channel_overview: pipeline progress for the stored channel
- get_video: metadata and training label for one video
- get_transcript: stored transcript text for one video
- get_rollup: per-period training-phase rollup
- macrocycle_report: markdown report of the training macrocycle

This lets AI assistants answer questions about the athlete's training
history through the MCP protocol.

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)`,
	Example: `  # Run MCP server with stdio transport (e.g. for Claude Desktop)
  liftscope mcp

  # Run MCP server with HTTP transport on port 8080
  liftscope mcp --transport=http --port=8080`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// MCP uses stdio protocol, so disable verbose logging
		config.Verbose = false
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		internal.InitMCPLogging(config)

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer app.Close()

		mcpServer := internal.NewMCPServer(app)

		if config.Verbose {
			if transport == "http" {
				fmt.Printf("Starting liftscope MCP server on HTTP port %d...\n", port)
			} else {
				fmt.Println("Starting liftscope MCP server on stdio...")
			}
		}

		// Start the server (this will block until context is cancelled)
		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	rootCmd.AddCommand(mcpCmd)
}
