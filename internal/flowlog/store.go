// Package flowlog keeps an in-memory record of completed wizard runs for
// the audit UI. Records are process-local and lost on restart.
package flowlog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type FlowStatus string

const (
	StatusSucceeded FlowStatus = "succeeded"
	StatusFailed    FlowStatus = "failed"
)

// Flow is one completed wizard run.
type Flow struct {
	ID         string
	ClientID   string
	TestName   string
	Action     string // create or update
	Actor      string
	Status     FlowStatus
	Written    []string
	FailedPath string
	Error      string
	CreatedAt  time.Time
	Logs       []LogEntry
}

type LogEntry struct {
	Timestamp time.Time
	Level     string // info, error, success
	Message   string
}

type Store struct {
	mu    sync.RWMutex
	flows map[string]*Flow
}

func NewStore() *Store {
	return &Store{
		flows: make(map[string]*Flow),
	}
}

// NewFlowID builds a unique, readable record id.
func NewFlowID(clientID, testName string) string {
	sanitized := strings.ReplaceAll(clientID+"-"+testName, "/", "-")
	return fmt.Sprintf("%s-%d", sanitized, time.Now().UnixNano())
}

func (s *Store) Record(flow *Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow.CreatedAt = time.Now()
	s.flows[flow.ID] = flow
}

func (s *Store) Get(id string) (*Flow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, ok := s.flows[id]
	return flow, ok
}

func (s *Store) List() []*Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flows := make([]*Flow, 0, len(s.flows))
	for _, flow := range s.flows {
		flows = append(flows, flow)
	}
	// Sort by created time descending
	sort.Slice(flows, func(i, j int) bool {
		return flows[i].CreatedAt.After(flows[j].CreatedAt)
	})
	return flows
}

func (s *Store) AddLog(id string, level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if flow, ok := s.flows[id]; ok {
		flow.Logs = append(flow.Logs, LogEntry{
			Timestamp: time.Now(),
			Level:     level,
			Message:   message,
		})
	}
}
