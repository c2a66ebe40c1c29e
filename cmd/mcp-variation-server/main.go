package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	// 1. Validate required environment variables
	requiredEnv := []string{"GITHUB_TOKEN", "REPO_OWNER", "REPO_NAME"}
	for _, env := range requiredEnv {
		if os.Getenv(env) == "" {
			log.Fatalf("[MCP Variation Server] Missing required environment variable: %s", env)
		}
	}

	log.Println("[MCP Variation Server] Starting Variation MCP Server v1.0.0")
	log.Printf("[MCP Variation Server] Repository: %s/%s", os.Getenv("REPO_OWNER"), os.Getenv("REPO_NAME"))

	// 2. Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "abflow-variation-server",
		Version: "v1.0.0",
	}, nil)

	// 3. Register tools
	getTool := &mcp.Tool{
		Name:        "get_variation_revision",
		Description: "Get the current revision marker for a variation file path (absent means the path does not exist)",
	}
	mcp.AddTool(server, getTool, HandleGetRevision)
	log.Println("[MCP Variation Server] Registered tool: get_variation_revision")

	upsertTool := &mcp.Tool{
		Name:        "upsert_variation",
		Description: "Create or update a variation file, using the path's current revision marker as write precondition",
	}
	mcp.AddTool(server, upsertTool, HandleUpsertVariation)
	log.Println("[MCP Variation Server] Registered tool: upsert_variation")

	// 4. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[MCP Variation Server] Received shutdown signal")
		cancel()
	}()

	// 5. Start server with stdio transport
	log.Println("[MCP Variation Server] Starting on stdio transport...")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[MCP Variation Server] Server error: %v", err)
	}
	log.Println("[MCP Variation Server] Server stopped gracefully")
}
