package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the abflow service
type Config struct {
	// Server settings
	Port int

	// Slack settings
	SlackSigningSecret string
	SlackBotToken      string
	SlashCommand       string

	// GitHub credentials: either a static token or App credentials
	GitHubToken      string
	GitHubAppID      string
	GitHubPrivateKey string

	// Write target
	DefaultBranch string

	// Client directory: client identifier -> repository coordinates
	Clients *ClientDirectory
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	privateKey := normalizePrivateKey(os.Getenv("GITHUB_PRIVATE_KEY"))

	cfg := &Config{
		Port:               getEnvInt("PORT", 8000),
		SlackSigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		SlackBotToken:      os.Getenv("SLACK_BOT_TOKEN"),
		SlashCommand:       getEnv("SLASH_COMMAND", "/abtest"),
		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
		GitHubAppID:        os.Getenv("GITHUB_APP_ID"),
		GitHubPrivateKey:   privateKey,
		DefaultBranch:      getEnv("DEFAULT_BRANCH", "main"),
		Clients:            ParseClientDirectory(os.Getenv("CLIENT_DIRECTORY")),
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func normalizePrivateKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "\"") && strings.HasSuffix(trimmed, "\"") {
		trimmed = strings.TrimPrefix(trimmed, "\"")
		trimmed = strings.TrimSuffix(trimmed, "\"")
	}
	if strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		trimmed = strings.TrimPrefix(trimmed, "'")
		trimmed = strings.TrimSuffix(trimmed, "'")
	}

	trimmed = strings.ReplaceAll(trimmed, "\r\n", "\n")
	trimmed = strings.ReplaceAll(trimmed, "\r", "\n")
	if strings.Contains(trimmed, "\\n") {
		trimmed = strings.ReplaceAll(trimmed, "\\r", "")
		trimmed = strings.ReplaceAll(trimmed, "\\n", "\n")
	}

	return trimmed
}

// validate checks that all required configuration is present
func (c *Config) validate() error {
	if err := c.validateSlackCredentials(); err != nil {
		return err
	}

	return c.validateGitHubCredentials()
}

func (c *Config) validateSlackCredentials() error {
	if c.SlackSigningSecret == "" {
		return fmt.Errorf("SLACK_SIGNING_SECRET is required")
	}
	if c.SlackBotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if !strings.HasPrefix(c.SlashCommand, "/") {
		return fmt.Errorf("SLASH_COMMAND must start with '/', got %q", c.SlashCommand)
	}
	return nil
}

func (c *Config) validateGitHubCredentials() error {
	if c.GitHubToken != "" {
		return nil
	}
	if c.GitHubAppID == "" && c.GitHubPrivateKey == "" {
		return fmt.Errorf("GITHUB_TOKEN or GITHUB_APP_ID + GITHUB_PRIVATE_KEY is required")
	}
	if c.GitHubAppID == "" {
		return fmt.Errorf("GITHUB_APP_ID is required when GITHUB_PRIVATE_KEY is set")
	}
	if c.GitHubPrivateKey == "" {
		return fmt.Errorf("GITHUB_PRIVATE_KEY is required when GITHUB_APP_ID is set")
	}
	return nil
}

// UsesAppAuth reports whether GitHub App credentials are in effect.
// A static token takes precedence when both are present.
func (c *Config) UsesAppAuth() bool {
	return c.GitHubToken == "" && c.GitHubAppID != ""
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
