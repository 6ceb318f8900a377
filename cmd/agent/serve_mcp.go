package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mfateev/sandbox-agent/internal/mcp"
)

var (
	flagEnableTools  []string
	flagDisableTools []string
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the sandboxed tools over MCP on stdin/stdout",
	Long: `serve-mcp exposes the same file and script tools used by the agent to an
MCP client over stdio. The working root is fixed by --root; arguments from the
client cannot move it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer shutdown(a)

		server := mcp.NewServer(a.executor, mcp.ServerOptions{
			Filter: mcp.NewToolFilter(flagEnableTools, flagDisableTools),
			Logger: a.logger,
		})
		a.logger.Info("serving MCP over stdio", "root", a.executor.Root().Path(), "tools", server.ToolNames())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.RunStdio(ctx)
	},
}

func init() {
	f := serveMCPCmd.Flags()
	f.StringSliceVar(&flagEnableTools, "enable-tool", nil, "Expose only these tools (repeatable)")
	f.StringSliceVar(&flagDisableTools, "disable-tool", nil, "Hide these tools (repeatable)")
}
