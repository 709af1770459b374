package game

import (
	"testing"

	"github.com/google/uuid"
)

func TestRegistrySeatsFirstComeFirstServed(t *testing.T) {
	r := NewRegistry()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	if seat := r.Assign(a); seat != SeatWhite {
		t.Fatalf("first connection got %q, want white", seat)
	}
	if seat := r.Assign(b); seat != SeatBlack {
		t.Fatalf("second connection got %q, want black", seat)
	}
	if seat := r.Assign(c); seat != SeatSpectator {
		t.Fatalf("third connection got %q, want spectator", seat)
	}
	if !r.BothSeated() {
		t.Error("both seats should be occupied")
	}
	if r.Spectators() != 1 {
		t.Errorf("spectators = %d, want 1", r.Spectators())
	}
}

func TestRegistryAssignIsIdempotentForKnownIdentity(t *testing.T) {
	r := NewRegistry()
	a := uuid.New()

	r.Assign(a)
	if seat := r.Assign(a); seat != SeatWhite {
		t.Errorf("re-assign returned %q, want existing white seat", seat)
	}
	if r.BothSeated() {
		t.Error("one identity must not occupy two seats")
	}
}

func TestRegistryReleaseFreesSeatForNextConnection(t *testing.T) {
	r := NewRegistry()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	r.Assign(a)
	r.Assign(b)

	if seat := r.Release(a); seat != SeatWhite {
		t.Fatalf("released %q, want white", seat)
	}
	if seat := r.Release(uuid.New()); seat != SeatNone {
		t.Errorf("unknown release returned %q, want none", seat)
	}
	if seat := r.Assign(c); seat != SeatWhite {
		t.Errorf("new connection got %q, want the freed white seat", seat)
	}
}

func TestRegistryResetKeepsWhite(t *testing.T) {
	r := NewRegistry()
	a, b := uuid.New(), uuid.New()
	r.Assign(a)
	r.Assign(b)

	displaced := r.Reset(true)

	if len(displaced) != 1 || displaced[0] != b {
		t.Fatalf("displaced = %v, want exactly the black occupant", displaced)
	}
	if seat := r.SeatOf(a); seat != SeatWhite {
		t.Errorf("white occupant lost seat, got %q", seat)
	}
	if seat := r.SeatOf(b); seat != SeatSpectator {
		t.Errorf("displaced black should spectate, got %q", seat)
	}
	if r.BothSeated() {
		t.Error("black seat should be empty after reset")
	}
}
