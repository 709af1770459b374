package game

import (
	"github.com/google/uuid"
)

// Seat is the role a connection holds in the session.
type Seat string

// Seats are filled first-come-first-served: White, then Black, then
// everyone else spectates.
const (
	SeatNone      Seat = ""
	SeatWhite     Seat = "white"
	SeatBlack     Seat = "black"
	SeatSpectator Seat = "spectator"
)

// Registry maps connection identities to seats. A connection occupies
// at most one seat. All methods are called from the hub loop only.
type Registry struct {
	white    uuid.UUID
	black    uuid.UUID
	hasWhite bool
	hasBlack bool

	spectators map[uuid.UUID]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		spectators: make(map[uuid.UUID]struct{}),
	}
}

// Assign gives the connection the first free seat, or spectator when
// both seats are taken. Assigning an already-known identity returns
// its current seat.
func (r *Registry) Assign(id uuid.UUID) Seat {
	if seat := r.SeatOf(id); seat != SeatNone {
		return seat
	}

	if !r.hasWhite {
		r.white = id
		r.hasWhite = true
		return SeatWhite
	}
	if !r.hasBlack {
		r.black = id
		r.hasBlack = true
		return SeatBlack
	}

	r.spectators[id] = struct{}{}
	return SeatSpectator
}

// Release frees whatever the identity held and returns it. Unknown
// identities are a no-op returning SeatNone.
func (r *Registry) Release(id uuid.UUID) Seat {
	switch {
	case r.hasWhite && r.white == id:
		r.hasWhite = false
		return SeatWhite
	case r.hasBlack && r.black == id:
		r.hasBlack = false
		return SeatBlack
	default:
		if _, ok := r.spectators[id]; ok {
			delete(r.spectators, id)
			return SeatSpectator
		}
		return SeatNone
	}
}

// SeatOf returns the seat held by the identity, if any.
func (r *Registry) SeatOf(id uuid.UUID) Seat {
	switch {
	case r.hasWhite && r.white == id:
		return SeatWhite
	case r.hasBlack && r.black == id:
		return SeatBlack
	default:
		if _, ok := r.spectators[id]; ok {
			return SeatSpectator
		}
		return SeatNone
	}
}

// White returns the white seat occupant.
func (r *Registry) White() (uuid.UUID, bool) {
	return r.white, r.hasWhite
}

// Black returns the black seat occupant.
func (r *Registry) Black() (uuid.UUID, bool) {
	return r.black, r.hasBlack
}

// BothSeated reports whether both playing seats are occupied.
func (r *Registry) BothSeated() bool {
	return r.hasWhite && r.hasBlack
}

// Spectators returns the number of spectating connections.
func (r *Registry) Spectators() int {
	return len(r.spectators)
}

// Reset empties the black seat. When keepWhite is false the white seat
// empties too. Displaced occupants become spectators; they keep their
// connection but must wait for a free seat on a later connect. The
// displaced identities are returned so the caller can re-announce
// roles.
func (r *Registry) Reset(keepWhite bool) (displaced []uuid.UUID) {
	if r.hasBlack {
		r.spectators[r.black] = struct{}{}
		r.hasBlack = false
		displaced = append(displaced, r.black)
	}
	if r.hasWhite && !keepWhite {
		r.spectators[r.white] = struct{}{}
		r.hasWhite = false
		displaced = append(displaced, r.white)
	}
	return displaced
}
