package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/thewisemo/al-eairy-ota/mcp"
)

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Start MCP HTTP server",
	Long:  "Start the MCP server over streamable HTTP for remote access. Set mcp.api_key to require a bearer token.",
	RunE:  runServeHTTP,
}

func init() {
	serveHTTPCmd.Flags().String("port", "", "HTTP port (default mcp.port, $PORT or 8080)")
	rootCmd.AddCommand(serveHTTPCmd)
}

func runServeHTTP(cmd *cobra.Command, args []string) error {
	deps, closeDeps, err := mcpDeps(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDeps()

	port := cfg.MCP.Port
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	addr := fmt.Sprintf(":%s", port)
	return mcpserver.ServeHTTP(cmd.Context(), addr, cfg.MCP.APIKey, deps, logger)
}
