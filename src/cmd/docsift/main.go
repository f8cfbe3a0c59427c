// Package main provides the docsift CLI. It parses documentation build
// output from stdin, a wrapped build command, or a remote log URL, and
// can expose results over MCP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docsift/src/config"
	"docsift/src/contracts"
	"docsift/src/mcp"
	"docsift/src/remote"
)

var (
	appConfig *config.Config

	flagVerbose     bool
	flagErrorsOnly  bool
	flagNoColor     bool
	flagJSON        bool
	flagInteractive bool
	flagShareState  bool
)

var rootCmd = &cobra.Command{
	Use:   "docsift [flags]",
	Short: "docsift - a structured parser for documentation build output",
	Long: `docsift turns noisy mkdocs-style build output into structured issues.

Pipe a build log into it, wrap a live build, or point it at a remote log:

  mkdocs serve 2>&1 | docsift
  docsift wrap -- mkdocs build --clean
  docsift url https://readthedocs.org/api/v2/build/12345.txt

By default docsift streams from stdin, printing parsed issues as each
build cycle completes. Use --interactive for a live TUI.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		appConfig = config.LoadFromEnv()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStream(cmd.Context(), os.Stdin, "stdin")
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Parse a complete build log and print all issues at once",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := os.Stdin
		source := "stdin"
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer f.Close()
			in = f
			source = args[0]
		}
		return runBatch(cmd.Context(), in, source)
	},
}

var urlCmd = &cobra.Command{
	Use:   "url <log-url>",
	Short: "Fetch a remote build log and parse it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := remote.NewClient(appConfig.FetchToken)
		body, err := client.FetchLog(cmd.Context(), args[0])
		if err != nil {
			return remote.WrapError(err)
		}
		defer body.Close()
		return runBatch(cmd.Context(), body, args[0])
	},
}

var wrapCmd = &cobra.Command{
	Use:   "wrap [-- command...]",
	Short: "Run the documentation build and parse its output live",
	Long: `Runs the build command (DOCSIFT_BUILD_CMD, or the arguments after --)
with stdout and stderr merged, streaming the output through the parser
while echoing progress. Exits nonzero if the build fails or any ERROR
issues are parsed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		command := appConfig.BuildCommand
		if len(args) > 0 {
			command = shellJoin(args)
		}
		return runWrap(cmd.Context(), command)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server on stdio",
	Long: `Exposes parsed build results to MCP clients. With --watch, the server
re-reads the shared state file before every tool call, picking up runs
written by a concurrent "docsift --share-state" process.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		watchDir := ""
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			watchDir = appConfig.StateDir
		}

		server := mcp.NewServer(mcp.Options{
			BuildCommand: appConfig.BuildCommand,
			FetchToken:   appConfig.FetchToken,
			WatchDir:     watchDir,
		})
		return server.Run()
	},
}

var viewCmd = &cobra.Command{
	Use:   "view [run-id]",
	Short: "Watch stdin in an interactive TUI, or display a stored run",
	Long: `Without arguments, parses stdin in a live TUI. With a run ID from
"docsift runs", loads that run from the store and prints its issues.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runInteractive(cmd.Context(), os.Stdin, "stdin")
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		return showRun(cmd.Context(), s, args[0], os.Stdout)
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored parse runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		return listRuns(cmd.Context(), s, limit, os.Stdout)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagErrorsOnly, "errors-only", false, "only report ERROR level issues")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit issues as JSON instead of formatted text")
	rootCmd.PersistentFlags().BoolVar(&flagShareState, "share-state", false, "write run state for a concurrent MCP server")
	rootCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "show results in an interactive TUI")

	mcpCmd.Flags().Bool("watch", false, "refresh from the shared state file on every tool call")
	runsCmd.Flags().Int("limit", 20, "max runs to list")

	rootCmd.AddCommand(batchCmd, urlCmd, wrapCmd, mcpCmd, viewCmd, runsCmd)
}

func main() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errIssuesFound) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// errIssuesFound signals a run that parsed ERROR issues. It surfaces as
// exit status 1 so docsift can gate CI steps, but only after deferred
// cleanup (broker/store connections) has run.
var errIssuesFound = errors.New("errors found in build output")

func issuesErr(issues []contracts.Issue) error {
	if contracts.ErrorCount(issues) > 0 {
		return errIssuesFound
	}
	return nil
}
