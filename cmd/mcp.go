package cmd

import (
	"context"
	"strings"

	"github.com/agentic-research/targetdiff/internal/snapshot"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

const serverVersion = "0.1.0"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve target descriptors to MCP clients over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.ServeStdio(newMCPServer())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func newMCPServer() *server.MCPServer {
	s := server.NewMCPServer("targetdiff", serverVersion, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("list_targets",
		mcp.WithDescription("List the build targets of an Xcode project"),
		mcp.WithString("project", mcp.Required(),
			mcp.Description("Path to the .xcodeproj directory or its project.pbxproj file")),
	), handleListTargets)

	s.AddTool(mcp.NewTool("describe_target",
		mcp.WithDescription("Describe one build target: configurations, phases, dependencies and member files, as JSON"),
		mcp.WithString("project", mcp.Required(),
			mcp.Description("Path to the .xcodeproj directory or its project.pbxproj file")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Exact target name")),
	), handleDescribeTarget)

	s.AddTool(mcp.NewTool("snapshot_files",
		mcp.WithDescription("List the member files a snapshot recorded for a target, one path per line"),
		mcp.WithString("snapshot", mcp.Required(), mcp.Description("Path to a database written by the snapshot command")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Exact target name")),
		mcp.WithString("category", mcp.Required(), mcp.Enum(snapshot.Categories...),
			mcp.Description("Which member list to return")),
	), handleSnapshotFiles)

	return s
}

func handleListTargets(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, _, err := loadProject(project)
	if err != nil {
		return mcp.NewToolResultError(userMessage(err)), nil
	}
	return mcp.NewToolResultText(strings.Join(s.TargetNames(), "\n")), nil
}

func handleDescribeTarget(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, ix, err := loadProject(project)
	if err != nil {
		return mcp.NewToolResultError(userMessage(err)), nil
	}
	out, err := describeTarget(s, ix, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func handleSnapshotFiles(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := make([]string, 0, 3)
	for _, key := range []string{"snapshot", "target", "category"} {
		v, err := req.RequireString(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args = append(args, v)
	}
	r, err := snapshot.Open(args[0])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer func() { _ = r.Close() }()

	paths, err := r.Files(args[1], args[2])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}
