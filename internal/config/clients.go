package config

import (
	"encoding/json"
	"log"
	"sort"
)

// ClientRepo holds the repository coordinates for one client.
type ClientRepo struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	TestsPath string `json:"testsPath"`
}

// ClientDirectory is a static mapping from client identifier to repository
// coordinates. Loaded once at startup, read-only thereafter.
type ClientDirectory struct {
	clients map[string]ClientRepo
}

// ParseClientDirectory parses the CLIENT_DIRECTORY JSON mapping.
// A malformed mapping is logged and degrades to an empty directory: every
// client selection becomes "unknown" but the process still starts.
func ParseClientDirectory(raw string) *ClientDirectory {
	dir := &ClientDirectory{clients: make(map[string]ClientRepo)}
	if raw == "" {
		log.Printf("[Config] CLIENT_DIRECTORY is empty, no clients configured")
		return dir
	}

	var parsed map[string]ClientRepo
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Printf("[Config] Malformed CLIENT_DIRECTORY, using empty mapping: %v", err)
		return dir
	}

	for id, repo := range parsed {
		if id == "" || repo.Owner == "" || repo.Repo == "" || repo.TestsPath == "" {
			log.Printf("[Config] Skipping incomplete client entry %q", id)
			continue
		}
		dir.clients[id] = repo
	}

	log.Printf("[Config] Loaded %d client(s)", len(dir.clients))
	return dir
}

// NewClientDirectory builds a directory from an explicit mapping (tests, embedding).
func NewClientDirectory(clients map[string]ClientRepo) *ClientDirectory {
	copied := make(map[string]ClientRepo, len(clients))
	for id, repo := range clients {
		copied[id] = repo
	}
	return &ClientDirectory{clients: copied}
}

// Lookup returns the repository coordinates for a client identifier.
func (d *ClientDirectory) Lookup(id string) (ClientRepo, bool) {
	repo, ok := d.clients[id]
	return repo, ok
}

// IDs returns all client identifiers in stable sorted order.
func (d *ClientDirectory) IDs() []string {
	ids := make([]string, 0, len(d.clients))
	for id := range d.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of configured clients.
func (d *ClientDirectory) Len() int {
	return len(d.clients)
}
