package cart

import (
	"testing"
	"time"
)

func TestManagerGetOrCreateReusesEngine(t *testing.T) {
	m := NewManager(&fakeGateway{}, nil, time.Hour)

	first := m.GetOrCreate("sess-1", "acc-1")
	second := m.GetOrCreate("sess-1", "acc-1")
	if first != second {
		t.Fatalf("same session should reuse engine")
	}
	if m.Len() != 1 {
		t.Fatalf("manager len want 1 got %d", m.Len())
	}
}

func TestManagerRebuildsOnAccountChange(t *testing.T) {
	m := NewManager(&fakeGateway{}, nil, time.Hour)

	first := m.GetOrCreate("sess-1", "acc-1")
	second := m.GetOrCreate("sess-1", "acc-2")
	if first == second {
		t.Fatalf("account switch should rebuild engine")
	}
	if second.AccountID() != "acc-2" {
		t.Fatalf("rebuilt engine account want acc-2 got %s", second.AccountID())
	}
}

func TestManagerDrop(t *testing.T) {
	m := NewManager(&fakeGateway{}, nil, time.Hour)
	m.GetOrCreate("sess-1", "acc-1")
	m.Drop("sess-1")
	if m.Len() != 0 {
		t.Fatalf("manager len want 0 got %d", m.Len())
	}
}

func TestManagerSweep(t *testing.T) {
	m := NewManager(&fakeGateway{}, nil, time.Minute)
	m.GetOrCreate("idle", "acc-1")
	m.GetOrCreate("active", "acc-1")

	m.mu.Lock()
	m.engines["idle"].lastSeen = time.Now().Add(-2 * time.Minute)
	m.mu.Unlock()

	m.sweep(time.Now())
	if m.Len() != 1 {
		t.Fatalf("sweep should keep only active engine, len=%d", m.Len())
	}
	if m.GetOrCreate("active", "acc-1") == nil {
		t.Fatalf("active engine should survive sweep")
	}
}
