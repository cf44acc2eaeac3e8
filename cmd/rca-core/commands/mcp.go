package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kcalliga/rca-core/internal/driver"
	"github.com/kcalliga/rca-core/internal/logging"
	mcpsdk "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP stdio server exposing the batch RCA step as a tool",
	Long: `Start a Model Context Protocol server over stdio that exposes a
single "run_rca_step" tool, mirroring the run subcommand's inputs and
outputs, for use by AI assistants and other MCP clients.`,
	Run: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}
	logger := logging.GetLogger("cmd.mcp")

	mcpServer := server.NewMCPServer(
		"rca-core MCP Server",
		Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	schema, err := json.Marshal(runRCAStepSchema())
	if err != nil {
		HandleError(err, "Failed to build tool schema")
	}
	tool := mcpsdk.NewToolWithRawSchema("run_rca_step", "Build episodes from an event table and a topology snapshot, evaluate root-cause rules, and write incident files", schema)
	mcpServer.AddTool(tool, runRCAStepHandler)

	logger.Info("Starting MCP stdio server")
	if err := server.ServeStdio(mcpServer); err != nil {
		HandleError(err, "MCP stdio server failed")
	}
}

type runRCAStepArgs struct {
	EventsPath    string   `json:"events_path"`
	SnapshotPath  string   `json:"snapshot_path"`
	RulesPath     string   `json:"rules_path"`
	OutputDir     string   `json:"output_dir"`
	WindowSeconds int      `json:"window_seconds"`
	KeyColumns    []string `json:"key_columns,omitempty"`
}

func runRCAStepSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"events_path":    map[string]any{"type": "string", "description": "Path to the event table (CSV or .parquet)"},
			"snapshot_path":  map[string]any{"type": "string", "description": "Path to the cluster topology snapshot JSON"},
			"rules_path":     map[string]any{"type": "string", "description": "Path to the root-cause rule file (YAML)"},
			"output_dir":     map[string]any{"type": "string", "description": "Directory to write incident JSON files to"},
			"window_seconds": map[string]any{"type": "integer", "description": "Episode window size, in seconds"},
			"key_columns":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"events_path", "snapshot_path", "rules_path", "output_dir", "window_seconds"},
	}
}

func runRCAStepHandler(ctx context.Context, request mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	raw, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return mcpsdk.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	var args runRCAStepArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return mcpsdk.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	opts := driver.Options{
		EventsPath:   args.EventsPath,
		SnapshotPath: args.SnapshotPath,
		RulesPath:    args.RulesPath,
		OutputDir:    args.OutputDir,
		Window:       time.Duration(args.WindowSeconds) * time.Second,
		KeyColumns:   args.KeyColumns,
	}

	result, err := driver.RunStep(ctx, opts, nil)
	if err != nil {
		return mcpsdk.NewToolResultError(fmt.Sprintf("run failed: %v", err)), nil
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcpsdk.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}
	return mcpsdk.NewToolResultText(string(resultJSON)), nil
}
