// Package mcp exposes parsed documentation build results to MCP clients
// over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"docsift/src/build"
	"docsift/src/contracts"
	"docsift/src/parse"
	"docsift/src/remote"
	"docsift/src/state"
)

// Options configures the MCP server.
type Options struct {
	// BuildCommand is run by the rebuild tool.
	BuildCommand string

	// FetchToken authenticates fetch_build_log requests.
	FetchToken string

	// WatchDir, when set, makes every read refresh the snapshot from the
	// shared state file written by a concurrently running parser.
	WatchDir string
}

// Server is the MCP server for docsift.
type Server struct {
	mcpServer *server.MCPServer
	snap      *Snapshot
	opts      Options
}

// NewServer creates a new MCP server.
func NewServer(opts Options) *Server {
	s := server.NewMCPServer(
		"docsift",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		snap:      NewSnapshot(),
		opts:      opts,
	}
	srv.registerTools()

	return srv
}

// Seed preloads the snapshot, used when the server starts from a batch parse.
func (s *Server) Seed(runID, source string, issues []contracts.Issue, info contracts.BuildInfo, rawTail []string) {
	s.snap.Update(runID, source, issues, info, rawTail)
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	issuesTool := mcp.NewTool("get_issues",
		mcp.WithDescription("Get the issues from the most recent documentation build, newest build first. Each issue has an id usable with get_issue_details."),
		mcp.WithBoolean("errors_only",
			mcp.Description("Only return ERROR level issues (default: false)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max issues to return (default: all)"),
		),
	)

	detailsTool := mcp.NewTool("get_issue_details",
		mcp.WithDescription("Get full details for one issue, including the executed code block and captured output when present."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Issue ID from get_issues"),
		),
	)

	buildInfoTool := mcp.NewTool("get_build_info",
		mcp.WithDescription("Get metadata for the most recent build: output directory, dev server URL, build time, and whether it completed."),
	)

	rawTool := mcp.NewTool("get_raw_output",
		mcp.WithDescription("Get the raw tail of the build log, unparsed."),
		mcp.WithNumber("lines",
			mcp.Description("Number of trailing lines to return (default: 100)"),
		),
	)

	rebuildTool := mcp.NewTool("rebuild",
		mcp.WithDescription("Run the documentation build command and parse its output, replacing the current issue set."),
	)

	fetchTool := mcp.NewTool("fetch_build_log",
		mcp.WithDescription("Fetch a remote build log over HTTP, parse it, and replace the current issue set."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL of the raw build log"),
		),
	)

	s.mcpServer.AddTool(issuesTool, s.handleGetIssues)
	s.mcpServer.AddTool(detailsTool, s.handleGetIssueDetails)
	s.mcpServer.AddTool(buildInfoTool, s.handleGetBuildInfo)
	s.mcpServer.AddTool(rawTool, s.handleGetRawOutput)
	s.mcpServer.AddTool(rebuildTool, s.handleRebuild)
	s.mcpServer.AddTool(fetchTool, s.handleFetchBuildLog)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// refresh reloads the snapshot from the shared state file in watch mode.
func (s *Server) refresh() {
	if s.opts.WatchDir == "" {
		return
	}

	st, err := state.Read(s.opts.WatchDir)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "failed to read shared state: %v\n", err)
		}
		return
	}
	s.snap.Update(st.RunID, st.Source, st.Issues, st.BuildInfo, st.RawTail)
}

func (s *Server) handleGetIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.refresh()

	errorsOnly := request.GetBool("errors_only", false)
	limit := request.GetInt("limit", 0)

	issues := s.snap.Issues(errorsOnly, limit)
	response := struct {
		RunID  string            `json:"run_id,omitempty"`
		Count  int               `json:"count"`
		Issues []contracts.Issue `json:"issues"`
	}{
		RunID:  s.snap.RunID(),
		Count:  len(issues),
		Issues: issues,
	}

	return toolResultJSON(response)
}

func (s *Server) handleGetIssueDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.refresh()

	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	issue, found := s.snap.Issue(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("issue not found: %s", id)), nil
	}

	return toolResultJSON(issue)
}

func (s *Server) handleGetBuildInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.refresh()

	if !s.snap.Loaded() {
		return mcp.NewToolResultError("no build has been parsed yet"), nil
	}
	return toolResultJSON(s.snap.BuildInfo())
}

func (s *Server) handleGetRawOutput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.refresh()

	lines := request.GetInt("lines", 100)
	tail := s.snap.RawTail(lines)
	return mcp.NewToolResultText(strings.Join(tail, "\n")), nil
}

func (s *Server) handleRebuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := build.Run(ctx, s.opts.BuildCommand)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rebuild failed: %v", err)), nil
	}

	issues, info := parse.RunToCompletion(strings.NewReader(result.Output))
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	s.snap.Update(runID, "rebuild", issues, info, tailLines(result.Output))

	response := struct {
		RunID    string              `json:"run_id"`
		ExitCode int                 `json:"exit_code"`
		Errors   int                 `json:"errors"`
		Warnings int                 `json:"warnings"`
		Build    contracts.BuildInfo `json:"build_info"`
	}{
		RunID:    runID,
		ExitCode: result.ExitCode,
		Errors:   contracts.ErrorCount(issues),
		Warnings: contracts.WarningCount(issues),
		Build:    info,
	}
	return toolResultJSON(response)
}

func (s *Server) handleFetchBuildLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := request.GetString("url", "")
	if url == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}

	client := remote.NewClient(s.opts.FetchToken)
	body, err := client.FetchLog(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(remote.WrapError(err).Error()), nil
	}
	defer body.Close()

	proc := parse.NewStreamingProcessor(body)
	var issues []contracts.Issue
	for event := proc.Next(); event != nil; event = proc.Next() {
		issues = append(issues, event.Issues...)
	}
	if err := proc.Err(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read log: %v", err)), nil
	}

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	s.snap.Update(runID, url, issues, proc.BuildInfo(), proc.RawTail())

	response := struct {
		RunID    string              `json:"run_id"`
		Source   string              `json:"source"`
		Errors   int                 `json:"errors"`
		Warnings int                 `json:"warnings"`
		Build    contracts.BuildInfo `json:"build_info"`
	}{
		RunID:    runID,
		Source:   url,
		Errors:   contracts.ErrorCount(issues),
		Warnings: contracts.WarningCount(issues),
		Build:    proc.BuildInfo(),
	}
	return toolResultJSON(response)
}

func toolResultJSON(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func tailLines(output string) []string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) > parse.RawTailLimit {
		lines = lines[len(lines)-parse.RawTailLimit:]
	}
	return lines
}
