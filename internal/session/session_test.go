package session

import (
	"testing"
	"time"

	"github.com/dgallion1/outlinesync/internal/transcript"
)

func testSession(id string, updated time.Time) *Session {
	return &Session{
		ID:        id,
		status:    StatusReady,
		createdAt: updated,
		updatedAt: updated,
		Document:  transcript.New(80),
	}
}

func TestStore_CleanupEvictsIdleSessions(t *testing.T) {
	s := NewStore(time.Hour)
	s.Put(testSession("old", time.Now().Add(-2*time.Hour)))
	s.Put(testSession("fresh", time.Now()))

	expired := s.Cleanup()
	if len(expired) != 1 || expired[0].ID != "old" {
		t.Fatalf("expected only %q evicted, got %d sessions", "old", len(expired))
	}
	if s.Get("old") != nil {
		t.Error("expected evicted session to be gone")
	}
	if s.Get("fresh") == nil {
		t.Error("expected fresh session to remain")
	}
}

func TestStore_ListOrdersByCreation(t *testing.T) {
	s := NewStore(time.Hour)
	base := time.Now()
	s.Put(testSession("b", base.Add(time.Second)))
	s.Put(testSession("a", base))
	s.Put(testSession("c", base.Add(2*time.Second)))

	list := s.List()
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, list[i].ID)
		}
	}
}

func TestSession_StatusTransitions(t *testing.T) {
	sess := testSession("x", time.Now().Add(-time.Minute))
	before := sess.Snapshot().UpdatedAt

	sess.SetStatus(StatusFailed, "parse: boom")
	snap := sess.Snapshot()
	if snap.Status != StatusFailed || snap.Error != "parse: boom" {
		t.Errorf("expected failed with error, got %+v", snap)
	}
	if !snap.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance")
	}

	sess.SetStatus(StatusReady, "")
	if snap := sess.Snapshot(); snap.Error != "" {
		t.Errorf("expected error cleared, got %q", snap.Error)
	}
}
