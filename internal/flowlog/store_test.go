package flowlog

import (
	"strings"
	"testing"
)

func TestRecordAndGet(t *testing.T) {
	store := NewStore()

	flow := &Flow{
		ID:       "acme-hero-cta-1",
		ClientID: "acme",
		TestName: "hero-cta",
		Action:   "create",
		Actor:    "rafee",
		Status:   StatusSucceeded,
		Written:  []string{"acme-tests/hero-cta/var-1.js"},
	}
	store.Record(flow)

	got, ok := store.Get("acme-hero-cta-1")
	if !ok {
		t.Fatal("recorded flow not found")
	}
	if got.ClientID != "acme" || got.Status != StatusSucceeded {
		t.Errorf("Get() = %+v, want the recorded flow", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped on record")
	}

	if _, ok := store.Get("missing"); ok {
		t.Error("Get() found a flow that was never recorded")
	}
}

func TestListNewestFirst(t *testing.T) {
	store := NewStore()
	for _, id := range []string{"first", "second", "third"} {
		store.Record(&Flow{ID: id, Status: StatusSucceeded})
	}

	flows := store.List()
	if len(flows) != 3 {
		t.Fatalf("List() = %d flows, want 3", len(flows))
	}
	for i := 1; i < len(flows); i++ {
		if flows[i].CreatedAt.After(flows[i-1].CreatedAt) {
			t.Errorf("List() not newest-first at index %d", i)
		}
	}
}

func TestAddLog(t *testing.T) {
	store := NewStore()
	store.Record(&Flow{ID: "f1", Status: StatusFailed})

	store.AddLog("f1", "error", "write failed")
	store.AddLog("missing", "error", "dropped silently")

	flow, _ := store.Get("f1")
	if len(flow.Logs) != 1 {
		t.Fatalf("Logs = %d entries, want 1", len(flow.Logs))
	}
	entry := flow.Logs[0]
	if entry.Level != "error" || entry.Message != "write failed" {
		t.Errorf("log entry = %+v", entry)
	}
	if entry.Timestamp.IsZero() {
		t.Error("log timestamp not stamped")
	}
}

func TestNewFlowID(t *testing.T) {
	id := NewFlowID("acme", "promo/banner")

	if strings.Contains(id, "/") {
		t.Errorf("NewFlowID() = %q, want slashes sanitized", id)
	}
	if !strings.HasPrefix(id, "acme-promo-banner-") {
		t.Errorf("NewFlowID() = %q, want client and test name prefix", id)
	}

	if other := NewFlowID("acme", "promo/banner"); other == id {
		t.Errorf("NewFlowID() produced duplicate id %q", id)
	}
}
