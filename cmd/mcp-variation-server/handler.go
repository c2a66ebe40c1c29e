package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rafeenoor/abflow/internal/githubstore"
)

// GetRevisionParams defines the input for get_variation_revision
type GetRevisionParams struct {
	Path string `json:"path" jsonschema:"Repository-relative file path of the variation"`
}

// UpsertVariationParams defines the input for upsert_variation
type UpsertVariationParams struct {
	Path    string `json:"path" jsonschema:"Repository-relative file path of the variation"`
	Content string `json:"content" jsonschema:"New file content"`
	Message string `json:"message,omitempty" jsonschema:"Optional commit message"`
}

// newStore builds the content store from environment configuration.
// Overridable in tests.
var newStore = func() *githubstore.Store {
	return githubstore.New(githubstore.StaticTokenSource(os.Getenv("GITHUB_TOKEN")))
}

func targetBranch() string {
	if branch := os.Getenv("TARGET_BRANCH"); branch != "" {
		return branch
	}
	return "main"
}

// HandleGetRevision handles the get_variation_revision tool call
func HandleGetRevision(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params GetRevisionParams,
) (*mcp.CallToolResult, any, error) {
	log.Printf("[MCP Variation Server] Received get_variation_revision request")

	if params.Path == "" {
		return nil, nil, fmt.Errorf("path parameter is required")
	}

	owner := os.Getenv("REPO_OWNER")
	repo := os.Getenv("REPO_NAME")

	marker, err := newStore().GetRevisionMarker(ctx, owner, repo, params.Path, targetBranch())
	if err != nil {
		log.Printf("[MCP Variation Server] Failed to get revision: %v", err)
		return errorResult(err), nil, nil
	}

	var resultText string
	switch {
	case marker == nil:
		resultText = fmt.Sprintf(`{"path": %q, "exists": false}`, params.Path)
	case marker.Directory:
		resultText = fmt.Sprintf(`{"path": %q, "exists": true, "directory": true}`, params.Path)
	default:
		resultText = fmt.Sprintf(`{"path": %q, "exists": true, "revision": %q}`, params.Path, marker.SHA)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: resultText},
		},
	}, nil, nil
}

// HandleUpsertVariation handles the upsert_variation tool call
func HandleUpsertVariation(
	ctx context.Context,
	req *mcp.CallToolRequest,
	params UpsertVariationParams,
) (*mcp.CallToolResult, any, error) {
	log.Printf("[MCP Variation Server] Received upsert_variation request")

	if params.Path == "" {
		return nil, nil, fmt.Errorf("path parameter is required")
	}

	owner := os.Getenv("REPO_OWNER")
	repo := os.Getenv("REPO_NAME")
	branch := targetBranch()
	store := newStore()

	marker, err := store.GetRevisionMarker(ctx, owner, repo, params.Path, branch)
	if err != nil {
		log.Printf("[MCP Variation Server] Failed to get revision: %v", err)
		return errorResult(err), nil, nil
	}

	write := githubstore.FileWrite{
		Path:    params.Path,
		Content: []byte(params.Content),
		Branch:  branch,
		Message: params.Message,
	}
	created := true
	if marker != nil && marker.SHA != "" {
		write.SHA = marker.SHA
		created = false
	}
	if write.Message == "" {
		if created {
			write.Message = fmt.Sprintf("Create %s", params.Path)
		} else {
			write.Message = fmt.Sprintf("Update %s", params.Path)
		}
	}

	if err := store.WriteFile(ctx, owner, repo, write); err != nil {
		log.Printf("[MCP Variation Server] Failed to write file: %v", err)
		return errorResult(err), nil, nil
	}

	log.Printf("[MCP Variation Server] Successfully wrote %s (created=%v)", params.Path, created)

	resultText := fmt.Sprintf(`{"success": true, "path": %q, "created": %v, "branch": %q}`,
		params.Path, created, branch)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: resultText},
		},
	}, nil, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Error: %v", err)},
		},
		IsError: true,
	}
}
