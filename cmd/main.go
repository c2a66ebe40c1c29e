package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/rafeenoor/abflow/internal/config"
	"github.com/rafeenoor/abflow/internal/flowlog"
	"github.com/rafeenoor/abflow/internal/githubstore"
	"github.com/rafeenoor/abflow/internal/slackhook"
	"github.com/rafeenoor/abflow/internal/web"
	"github.com/rafeenoor/abflow/internal/wizard"
)

var (
	loadDotEnv         = godotenv.Load
	newFlowStore       = flowlog.NewStore
	newSlackClient     = func(token string) slackhook.SlackAPI { return slackhook.NewAPIClient(token) }
	newWebHandler      = web.NewHandler
	defaultListenServe = http.ListenAndServe
)

func main() {
	if err := run(context.Background(), defaultListenServe); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(ctx context.Context, serve func(string, http.Handler) error) error {
	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Starting abflow server...")
	log.Printf("Port: %d", cfg.Port)
	log.Printf("Slash command: %s", cfg.SlashCommand)
	log.Printf("Default branch: %s", cfg.DefaultBranch)
	log.Printf("Clients configured: %d", cfg.Clients.Len())

	// Select the GitHub credential source
	var tokens githubstore.TokenSource
	if cfg.UsesAppAuth() {
		log.Printf("GitHub auth: App (ID %s)", cfg.GitHubAppID)
		tokens = &githubstore.AppAuth{
			AppID:      cfg.GitHubAppID,
			PrivateKey: cfg.GitHubPrivateKey,
		}
	} else {
		log.Printf("GitHub auth: static token")
		tokens = githubstore.StaticTokenSource(cfg.GitHubToken)
	}

	// Initialize the remote file store and the wizard flow over it
	store := githubstore.New(tokens)
	flow := wizard.NewFlow(cfg.Clients, store, cfg.DefaultBranch)

	// Initialize the flow audit log
	flows := newFlowStore()

	// Initialize the Slack webhook handler
	handler := slackhook.NewHandler(cfg.SlackSigningSecret, cfg.SlashCommand, flow, newSlackClient(cfg.SlackBotToken), flows)

	// Initialize the audit UI handler
	webHandler, err := newWebHandler(flows)
	if err != nil {
		return fmt.Errorf("failed to initialize web handler: %w", err)
	}

	// Setup router
	r := mux.NewRouter()

	// Slack endpoints
	r.HandleFunc("/slack/commands", handler.HandleCommand).Methods("POST")
	r.HandleFunc("/slack/interactions", handler.HandleInteraction).Methods("POST")
	r.HandleFunc("/slack/events", handler.HandleEvent).Methods("POST")

	// Audit UI endpoints
	webHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Root endpoint with info
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"service":"abflow","status":"running","command":"%s"}`, cfg.SlashCommand)
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Slack commands endpoint: http://localhost%s/slack/commands", addr)
	log.Printf("Health check: http://localhost%s/health", addr)
	log.Printf("Runs UI: http://localhost%s/flows", addr)

	if err := serve(addr, r); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}
