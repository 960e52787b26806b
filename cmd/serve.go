package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/thewisemo/al-eairy-ota/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	deps, closeDeps, err := mcpDeps(cmd.Context())
	if err != nil {
		return err
	}
	defer closeDeps()

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting Al Eairy OTA MCP server on stdio...")
	if err := mcpserver.Serve(deps); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// mcpDeps wires the tools to the file store, the expander and, when configured,
// the Postgres mirror for brand history.
func mcpDeps(ctx context.Context) (mcpserver.Deps, func(), error) {
	exp, err := svc.Expander()
	if err != nil {
		return mcpserver.Deps{}, nil, err
	}
	deps := mcpserver.Deps{
		Snapshots: svc.Store(),
		Expander:  exp,
		Now:       func() time.Time { return svc.RunDate(time.Now()) },
	}
	mirror, closeMirror, err := svc.OpenMirror(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("postgres unavailable; brand_history disabled")
		return deps, func() {}, nil
	}
	if mirror != nil {
		deps.History = mirror
	}
	return deps, closeMirror, nil
}
