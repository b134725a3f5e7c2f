// Package cmd provides the CLI commands for codanna.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codanna-go/codanna/internal/logging"
	"github.com/codanna-go/codanna/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the codanna CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codanna",
		Short: "Local-first hybrid search and code-intelligence engine",
		Long: `codanna indexes a codebase and its documentation for hybrid
(BM25 + semantic) search, exposing exact symbol lookup, structural graph
queries (callers/callees/implementations/impact), and semantic search
over an MCP server for AI coding assistants.

Run 'codanna index' to build an index, then 'codanna serve' to expose it
over MCP, or 'codanna search' to query it directly from the CLI.`,
		Version: version.Version,
	}

	cmd.SetVersionTemplate("codanna version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to .codanna/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging wires slog to the debug log file when --debug is set; every
// command otherwise keeps slog's default handler, which writes to stderr,
// so stdout still carries nothing but command output or protocol frames.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
