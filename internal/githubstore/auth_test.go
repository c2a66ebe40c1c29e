package githubstore

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testPrivateKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	return string(pem.EncodeToMemory(block))
}

func TestStaticTokenSource(t *testing.T) {
	source := StaticTokenSource("ghp_fixed")

	token, err := source.Token("acme-inc", "experiments")
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "ghp_fixed" {
		t.Errorf("Token() = %q, want ghp_fixed", token)
	}
}

func TestGenerateJWT(t *testing.T) {
	tests := []struct {
		name       string
		appID      string
		privateKey string
		wantErr    string
	}{
		{name: "invalid private key", appID: "1234", privateKey: "not a pem", wantErr: "failed to parse private key"},
		{name: "invalid app id", appID: "not-a-number", wantErr: "invalid app ID"},
		{name: "valid", appID: "1234"},
	}

	validKey := testPrivateKeyPEM(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := tt.privateKey
			if key == "" {
				key = validKey
			}
			auth := &AppAuth{AppID: tt.appID, PrivateKey: key}

			token, err := auth.GenerateJWT()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("GenerateJWT() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateJWT() error = %v", err)
			}
			if strings.Count(token, ".") != 2 {
				t.Errorf("GenerateJWT() = %q, want a three-part JWT", token)
			}
		})
	}
}

func TestAppAuthTokenExchangeAndCache(t *testing.T) {
	var installationCalls, tokenCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/acme-inc/experiments/installation":
			installationCalls++
			if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
				t.Errorf("installation lookup auth = %q, want Bearer JWT", auth)
			}
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"id": 42}`)
		case r.Method == http.MethodPost && r.URL.Path == "/app/installations/42/access_tokens":
			tokenCalls++
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"token": "inst-token", "expires_at": %q}`, time.Now().Add(time.Hour).Format(time.RFC3339))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	auth := &AppAuth{
		AppID:      "1234",
		PrivateKey: testPrivateKeyPEM(t),
		APIBase:    server.URL,
	}

	token, err := auth.Token("acme-inc", "experiments")
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "inst-token" {
		t.Errorf("Token() = %q, want inst-token", token)
	}

	// A second call within the expiry window must be served from the cache.
	if _, err := auth.Token("acme-inc", "experiments"); err != nil {
		t.Fatalf("Token() second call error = %v", err)
	}
	if installationCalls != 1 || tokenCalls != 1 {
		t.Errorf("API calls = %d/%d, want 1/1 (cached)", installationCalls, tokenCalls)
	}
}

func TestAppAuthTokenInstallationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	}))
	defer server.Close()

	auth := &AppAuth{
		AppID:      "1234",
		PrivateKey: testPrivateKeyPEM(t),
		APIBase:    server.URL,
	}

	if _, err := auth.Token("acme-inc", "gone"); err == nil {
		t.Fatal("Token() error = nil, want installation lookup failure")
	}
}
