package session

import (
	"sync"
	"testing"

	"github.com/mrms/resource-management/internal/core/domain"
)

func admin() *domain.User {
	return &domain.User{ID: "u-1", Username: "admin", Role: domain.RoleAdmin, Active: true}
}

func TestStore_InitialState(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()
	if snap.User != nil || snap.IsAuthenticated || snap.IsInitialized {
		t.Fatalf("unexpected initial state: %+v", snap)
	}
	if !s.Consistent() {
		t.Fatalf("initial state must be consistent")
	}
}

func TestStore_SetUserDoesNotToggleAuthentication(t *testing.T) {
	s := NewStore()
	s.SetUser(admin())

	snap := s.Snapshot()
	if snap.User == nil || snap.IsAuthenticated {
		t.Fatalf("SetUser must only replace the user: %+v", snap)
	}
	if s.Consistent() {
		t.Fatalf("store should report the half-applied pair as inconsistent")
	}

	s.SetIsAuthenticated(true)
	if !s.Consistent() {
		t.Fatalf("expected consistent state after completing the pair")
	}
}

func TestStore_SetIsInitializedIsALatch(t *testing.T) {
	s := NewStore()

	if !s.SetIsInitialized(true) {
		t.Fatalf("first true must be accepted")
	}
	if !s.SetIsInitialized(true) {
		t.Fatalf("repeated true is idempotent")
	}
	if s.SetIsInitialized(false) {
		t.Fatalf("false after true must be rejected")
	}
	if !s.Snapshot().IsInitialized {
		t.Fatalf("latch was reset")
	}
}

func TestStore_SetSessionAndClear(t *testing.T) {
	s := NewStore()
	s.SetIsInitialized(true)

	s.SetSession(admin())
	snap := s.Snapshot()
	if !snap.IsAuthenticated || snap.User.Username != "admin" || !snap.Consistent() {
		t.Fatalf("unexpected state after SetSession: %+v", snap)
	}

	s.Clear()
	snap = s.Snapshot()
	if snap.User != nil || snap.IsAuthenticated || !snap.Consistent() {
		t.Fatalf("unexpected state after Clear: %+v", snap)
	}
	if !snap.IsInitialized {
		t.Fatalf("Clear must not touch the initialized latch")
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore()
	u := admin()
	s.SetSession(u)

	u.Username = "mutated-by-caller"
	snap := s.Snapshot()
	snap.User.Role = domain.RoleLogisticsOfficer

	again := s.Snapshot()
	if again.User.Username != "admin" || again.User.Role != domain.RoleAdmin {
		t.Fatalf("store leaked its user: %+v", again.User)
	}
}

func TestStore_SubscribeSeesCompletedChanges(t *testing.T) {
	s := NewStore()
	var seen []Session
	unsubscribe := s.Subscribe(func(snap Session) {
		// Reading back from a listener must not deadlock.
		_ = s.Snapshot()
		seen = append(seen, snap)
	})

	s.SetSession(admin())
	s.SetSession(nil)
	s.SetSession(nil) // no change, no notification

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	for i, snap := range seen {
		if !snap.Consistent() {
			t.Fatalf("notification %d observed torn state: %+v", i, snap)
		}
	}

	unsubscribe()
	s.SetSession(admin())
	if len(seen) != 2 {
		t.Fatalf("listener still called after unsubscribe")
	}
}

func TestStore_ConcurrentWritersStayConsistent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetSession(admin())
		}()
		go func() {
			defer wg.Done()
			s.Clear()
		}()
	}
	wg.Wait()

	if !s.Consistent() {
		t.Fatalf("state inconsistent after concurrent SetSession/Clear: %+v", s.Snapshot())
	}
}
