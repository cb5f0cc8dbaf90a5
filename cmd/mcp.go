package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/camldex/camldex/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the index to assistant tooling over stdio",
	Long: `Build (or load) the switch index once, then expose module lookup and
package listing as MCP tools on stdin/stdout.`,
	Run: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	cfg, root := setup()
	st, report := loadState(context.Background(), cfg, root)
	printReport(report)

	if err := mcp.NewServer(st).Run(); err != nil {
		log.Fatalf("mcp server: %v", err)
	}
}
