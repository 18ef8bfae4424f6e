package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/openshift/managed-notifications/engine/search"
)

const searchDescription = `Search managed service notification logs for issues matching a problem statement.

This tool searches through a database of managed service notifications to find
logs that are semantically similar to the provided problem description.

IMPORTANT: Many notifications contain variable placeholders (e.g., ${TIME}, ${REASON},
${POD}, ${NAMESPACE}) that need to be replaced with actual values. When you find a
relevant notification that contains variables, you should:
1. Present the notification to the user
2. Ask the user to provide values for each variable listed in the "variables" field
3. Help the user interpolate the variables into the notification text
4. Print the service log using the exact JSON given using the interpolated values

Returns a list of matching notification documents with metadata including:
- notification: Full JSON notification data with variable placeholders
- variables: List of variable names that need interpolation (e.g., ["TIME", "REASON"])
- file_path: Path to the original notification file
- folder: Category folder (hcp, osd, rosa, etc.)
- severity: Notification severity level
- similarity: Similarity score (0-1, higher is more similar)

Example variables you might encounter:
- ${TIME}: Timestamp when the issue occurred
- ${REASON}: Specific reason for the failure
- ${POD}: Name of the affected pod
- ${NAMESPACE}: Kubernetes namespace
- ${CLUSTER_ID}: Cluster identifier
- ${NUM_OF_WORKERS}: Number of worker nodes`

const statsDescription = `Get statistics about the notification database.

Returns information about the number of notifications and categories available.`

// searchArgs is the input schema for search_service_logs.
type searchArgs struct {
	ProblemStatement string `json:"problem_statement" jsonschema:"Description of the issue or problem you're investigating"`
	MaxResults       int    `json:"max_results,omitempty" jsonschema:"Maximum number of matching notifications to return (default: 5)"`
}

// advisory is returned instead of results when a search matches nothing or
// the backend fails. The caller gets a hint, not a protocol error.
type advisory struct {
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	Suggestion string `json:"suggestion"`
}

func newMCPServer(svc *search.Service, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_service_logs",
		Description: searchDescription,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
		mSearches.Inc()
		start := time.Now()
		results, err := svc.Search(ctx, args.ProblemStatement, args.MaxResults)
		mSearchDur.Since(start)
		if err != nil {
			mSearchErrors.Inc()
			logger.Error("search failed", "error", err)
			return nil, []advisory{{
				Error:      "Search failed: " + err.Error(),
				Suggestion: "Ensure the notification index has been built by running the ingest command",
			}}, nil
		}
		if len(results) == 0 {
			return nil, []advisory{{
				Message:    "No matching notifications found",
				Suggestion: "Try using different keywords or check if the database contains relevant notifications",
			}}, nil
		}
		return nil, results, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_database_stats",
		Description: statsDescription,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
		mStats.Inc()
		stats, err := svc.Stats(ctx)
		if err != nil {
			logger.Error("stats failed", "error", err)
			return nil, map[string]string{"error": "Failed to get stats: " + err.Error()}, nil
		}
		return nil, stats, nil
	})

	return server
}
