package config

import (
	"os"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "SLACK_SIGNING_SECRET", "SLACK_BOT_TOKEN", "SLASH_COMMAND",
		"GITHUB_TOKEN", "GITHUB_APP_ID", "GITHUB_PRIVATE_KEY",
		"DEFAULT_BRANCH", "CLIENT_DIRECTORY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(*testing.T, *Config)
	}{
		{
			name: "all required fields present with token auth",
			env: map[string]string{
				"SLACK_SIGNING_SECRET": "sig-secret",
				"SLACK_BOT_TOKEN":      "xoxb-test",
				"GITHUB_TOKEN":         "ghp_test",
				"PORT":                 "8080",
				"SLASH_COMMAND":        "/experiments",
				"DEFAULT_BRANCH":       "production",
				"CLIENT_DIRECTORY":     `{"acme": {"owner": "acme-inc", "repo": "experiments", "testsPath": "acme-tests"}}`,
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != 8080 {
					t.Errorf("Port = %d, want 8080", cfg.Port)
				}
				if cfg.SlashCommand != "/experiments" {
					t.Errorf("SlashCommand = %s, want /experiments", cfg.SlashCommand)
				}
				if cfg.DefaultBranch != "production" {
					t.Errorf("DefaultBranch = %s, want production", cfg.DefaultBranch)
				}
				if cfg.UsesAppAuth() {
					t.Error("UsesAppAuth() = true, want false with static token")
				}
				if cfg.Clients.Len() != 1 {
					t.Errorf("Clients.Len() = %d, want 1", cfg.Clients.Len())
				}
			},
		},
		{
			name: "defaults applied",
			env: map[string]string{
				"SLACK_SIGNING_SECRET": "sig-secret",
				"SLACK_BOT_TOKEN":      "xoxb-test",
				"GITHUB_TOKEN":         "ghp_test",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Port != 8000 {
					t.Errorf("Port = %d, want 8000", cfg.Port)
				}
				if cfg.SlashCommand != "/abtest" {
					t.Errorf("SlashCommand = %s, want /abtest", cfg.SlashCommand)
				}
				if cfg.DefaultBranch != "main" {
					t.Errorf("DefaultBranch = %s, want main", cfg.DefaultBranch)
				}
				if cfg.Clients.Len() != 0 {
					t.Errorf("Clients.Len() = %d, want 0", cfg.Clients.Len())
				}
			},
		},
		{
			name: "app auth selected when no static token",
			env: map[string]string{
				"SLACK_SIGNING_SECRET": "sig-secret",
				"SLACK_BOT_TOKEN":      "xoxb-test",
				"GITHUB_APP_ID":        "1234",
				"GITHUB_PRIVATE_KEY":   "test-private-key",
			},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.UsesAppAuth() {
					t.Error("UsesAppAuth() = false, want true")
				}
			},
		},
		{
			name: "missing signing secret",
			env: map[string]string{
				"SLACK_BOT_TOKEN": "xoxb-test",
				"GITHUB_TOKEN":    "ghp_test",
			},
			wantErr: "SLACK_SIGNING_SECRET",
		},
		{
			name: "missing bot token",
			env: map[string]string{
				"SLACK_SIGNING_SECRET": "sig-secret",
				"GITHUB_TOKEN":         "ghp_test",
			},
			wantErr: "SLACK_BOT_TOKEN",
		},
		{
			name: "missing github credentials entirely",
			env: map[string]string{
				"SLACK_SIGNING_SECRET": "sig-secret",
				"SLACK_BOT_TOKEN":      "xoxb-test",
			},
			wantErr: "GITHUB_TOKEN or GITHUB_APP_ID",
		},
		{
			name: "app id without private key",
			env: map[string]string{
				"SLACK_SIGNING_SECRET": "sig-secret",
				"SLACK_BOT_TOKEN":      "xoxb-test",
				"GITHUB_APP_ID":        "1234",
			},
			wantErr: "GITHUB_PRIVATE_KEY is required",
		},
		{
			name: "private key without app id",
			env: map[string]string{
				"SLACK_SIGNING_SECRET": "sig-secret",
				"SLACK_BOT_TOKEN":      "xoxb-test",
				"GITHUB_PRIVATE_KEY":   "test-private-key",
			},
			wantErr: "GITHUB_APP_ID is required",
		},
		{
			name: "slash command without leading slash",
			env: map[string]string{
				"SLACK_SIGNING_SECRET": "sig-secret",
				"SLACK_BOT_TOKEN":      "xoxb-test",
				"GITHUB_TOKEN":         "ghp_test",
				"SLASH_COMMAND":        "abtest",
			},
			wantErr: "SLASH_COMMAND",
		},
		{
			name: "malformed client directory is not fatal",
			env: map[string]string{
				"SLACK_SIGNING_SECRET": "sig-secret",
				"SLACK_BOT_TOKEN":      "xoxb-test",
				"GITHUB_TOKEN":         "ghp_test",
				"CLIENT_DIRECTORY":     `{"acme": not json`,
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Clients.Len() != 0 {
					t.Errorf("Clients.Len() = %d, want 0 for malformed mapping", cfg.Clients.Len())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Load() error = nil, want error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestNormalizePrivateKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain key unchanged", input: "-----BEGIN KEY-----\nabc\n-----END KEY-----", want: "-----BEGIN KEY-----\nabc\n-----END KEY-----"},
		{name: "double quotes stripped", input: `"-----BEGIN KEY-----"`, want: "-----BEGIN KEY-----"},
		{name: "single quotes stripped", input: "'-----BEGIN KEY-----'", want: "-----BEGIN KEY-----"},
		{name: "escaped newlines unescaped", input: `line1\nline2`, want: "line1\nline2"},
		{name: "crlf folded", input: "line1\r\nline2", want: "line1\nline2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePrivateKey(tt.input); got != tt.want {
				t.Errorf("normalizePrivateKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
