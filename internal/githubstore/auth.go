package githubstore

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields a GitHub credential for a repository.
type TokenSource interface {
	Token(owner, repo string) (string, error)
}

// StaticTokenSource wraps a fixed personal-access or installation token.
type StaticTokenSource string

// Token returns the wrapped token regardless of repository.
func (s StaticTokenSource) Token(owner, repo string) (string, error) {
	return string(s), nil
}

// AppAuth mints GitHub App installation tokens. Tokens are cached per
// repository until shortly before expiry.
type AppAuth struct {
	AppID      string
	PrivateKey string

	// APIBase overrides the GitHub API base URL (tests).
	APIBase string

	mu    sync.Mutex
	cache map[string]installationToken
}

type installationToken struct {
	token     string
	expiresAt time.Time
}

const githubAPIBase = "https://api.github.com"

// GenerateJWT creates a JWT token for GitHub App authentication
func (a *AppAuth) GenerateJWT() (string, error) {
	// Parse private key
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(a.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	// Convert App ID to int
	appID, err := strconv.ParseInt(a.AppID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid app ID: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    strconv.FormatInt(appID, 10),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signedToken, nil
}

// Token gets an installation access token for a repository.
func (a *AppAuth) Token(owner, repo string) (string, error) {
	key := owner + "/" + repo

	a.mu.Lock()
	if cached, ok := a.cache[key]; ok && time.Until(cached.expiresAt) > time.Minute {
		a.mu.Unlock()
		return cached.token, nil
	}
	a.mu.Unlock()

	// 1. Generate JWT
	jwtToken, err := a.GenerateJWT()
	if err != nil {
		return "", err
	}

	// 2. Get installation ID for the repository
	installationID, err := a.getInstallationID(jwtToken, owner, repo)
	if err != nil {
		return "", err
	}

	// 3. Get installation access token
	tok, err := a.getInstallationAccessToken(jwtToken, installationID)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	if a.cache == nil {
		a.cache = make(map[string]installationToken)
	}
	a.cache[key] = *tok
	a.mu.Unlock()

	return tok.token, nil
}

func (a *AppAuth) apiBase() string {
	if a.APIBase != "" {
		return a.APIBase
	}
	return githubAPIBase
}

// getInstallationID retrieves the installation ID for a repository
func (a *AppAuth) getInstallationID(jwtToken, owner, repo string) (int64, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/installation", a.apiBase(), owner, repo)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to get installation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("GitHub API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.ID, nil
}

// getInstallationAccessToken retrieves an installation access token
func (a *AppAuth) getInstallationAccessToken(jwtToken string, installationID int64) (*installationToken, error) {
	url := fmt.Sprintf("%s/app/installations/%d/access_tokens", a.apiBase(), installationID)
	req, err := http.NewRequest("POST", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+jwtToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &installationToken{
		token:     result.Token,
		expiresAt: result.ExpiresAt,
	}, nil
}
