// Package githubstore adapts the GitHub Contents API to the two primitives
// the wizard needs: read a path's current revision marker, and write file
// content conditioned on an optional expected prior marker.
package githubstore

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
)

// RevisionMarker identifies the current content at a path. A nil marker
// means the path does not exist; Directory marks a path occupied by a
// directory instead of a file.
type RevisionMarker struct {
	SHA       string
	Directory bool
}

// FileWrite describes one create-or-update operation. An empty SHA issues a
// create (no precondition); a non-empty SHA issues an optimistic-concurrency
// update against that revision.
type FileWrite struct {
	Path    string
	Content []byte
	Message string
	Branch  string
	SHA     string
}

// Store is the remote file store adapter. It never retries: every failure
// propagates to the caller with its classification and raw message.
type Store struct {
	tokens TokenSource

	// baseURL overrides the GitHub API endpoint (tests). Must end in "/".
	baseURL string
}

// New creates a store backed by the given token source.
func New(tokens TokenSource) *Store {
	return &Store{tokens: tokens}
}

// NewWithBaseURL creates a store pointed at an alternate API endpoint.
func NewWithBaseURL(tokens TokenSource, baseURL string) *Store {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Store{tokens: tokens, baseURL: baseURL}
}

func (s *Store) client(owner, repo string) (*github.Client, error) {
	token, err := s.tokens.Token(owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token for %s/%s: %w", owner, repo, err)
	}

	client := github.NewClient(nil).WithAuthToken(token)
	if s.baseURL != "" {
		parsed, err := url.Parse(s.baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL: %w", err)
		}
		client.BaseURL = parsed
		client.UploadURL = parsed
	}

	return client, nil
}

// GetRevisionMarker returns the revision marker for a path at a ref.
// A missing path returns (nil, nil); the 404 is absorbed here and never
// propagated. Any other failure returns a classified StoreError.
func (s *Store) GetRevisionMarker(ctx context.Context, owner, repo, path, ref string) (*RevisionMarker, error) {
	client, err := s.client(owner, repo)
	if err != nil {
		return nil, &StoreError{Kind: KindTransport, Op: "get", Path: path, Err: err}
	}

	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, dir, _, err := client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		se := classify("get", path, err)
		if se.Kind == KindNotFound {
			return nil, nil
		}
		return nil, se
	}

	if dir != nil {
		return &RevisionMarker{Directory: true}, nil
	}
	if file == nil {
		return nil, nil
	}

	return &RevisionMarker{SHA: file.GetSHA()}, nil
}

// WriteFile creates or overwrites one file with a single commit.
func (s *Store) WriteFile(ctx context.Context, owner, repo string, w FileWrite) error {
	client, err := s.client(owner, repo)
	if err != nil {
		return &StoreError{Kind: KindTransport, Op: "write", Path: w.Path, Err: err}
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(w.Message),
		Content: w.Content,
		Branch:  github.String(w.Branch),
	}

	if w.SHA != "" {
		opts.SHA = github.String(w.SHA)
		_, _, err = client.Repositories.UpdateFile(ctx, owner, repo, w.Path, opts)
	} else {
		_, _, err = client.Repositories.CreateFile(ctx, owner, repo, w.Path, opts)
	}
	if err != nil {
		return classify("write", w.Path, err)
	}

	log.Printf("[Store] Wrote %s/%s %s (branch=%s, update=%v)", owner, repo, w.Path, w.Branch, w.SHA != "")
	return nil
}
