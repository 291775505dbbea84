package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/skillcast/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for skill video transcripts",
	Long: `Run a Model Context Protocol (MCP) server that exposes skillcast as tools.

The MCP server provides three tools:
- get_video: Catalog record for a video as JSON
- get_video_transcript: Stored transcript, generated once on first request
- ask_about_video: Answer a question using the video's transcript

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: Streamable HTTP transport on specified port (use --port to configure)

Set mcp_log = true in config.toml to log tool calls to the cache directory.`,
	Example: `  # Run MCP server with stdio transport
  skillcast mcp

  # Run MCP server with HTTP transport on port 8080
  skillcast mcp --transport=http --port=8080`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol
		config.Verbose = false
		config.Quiet = true
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		if transport != "stdio" && transport != "http" {
			return fmt.Errorf("unsupported transport %q (use stdio or http)", transport)
		}

		internal.InitMCPLogging(config)

		app, err := internal.NewApp(cmd.Context(), config)
		if err != nil {
			internal.MCPLogError("starting: %v", err)
			return err
		}
		defer app.Close()

		mcpServer := internal.NewMCPServer(app, version)

		if transport == "http" {
			fmt.Fprintf(os.Stderr, "Starting skillcast MCP server on HTTP port %d...\n", port)
		}

		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	rootCmd.AddCommand(mcpCmd)
}
