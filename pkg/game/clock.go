package game

import (
	"fmt"
	"time"

	"github.com/tecu23/match-server/internal/color"
)

// Clock manages the countdown timers for both players. It is a pure
// state machine: the hub owns the periodic ticker and feeds Tick into
// the same loop that handles every other event, so no clock mutation
// ever races a move.
type Clock struct {
	whiteMs int64
	blackMs int64

	active   color.Color
	lastTick time.Time
	running  bool
}

// ClockState is a read-only snapshot of both remaining times.
type ClockState struct {
	WhiteMs int64
	BlackMs int64
	Active  color.Color
}

// NewClock creates a stopped clock with the given allotment per side,
// in milliseconds.
func NewClock(allotmentMs int64) *Clock {
	return &Clock{
		whiteMs: allotmentMs,
		blackMs: allotmentMs,
		active:  color.White,
	}
}

// Start begins counting down for the given side.
func (c *Clock) Start(active color.Color, now time.Time) {
	if c.running {
		return
	}
	c.active = active
	c.lastTick = now
	c.running = true
}

// Stop halts the countdown. Remaining times freeze until Start.
func (c *Clock) Stop() {
	c.running = false
}

// Running reports whether the clock is counting down.
func (c *Clock) Running() bool {
	return c.running
}

// Switch charges the elapsed time to the side that just moved and hands
// the countdown to the new active side. Resetting the reference
// timestamp here avoids double-charging the new side for time already
// spent by the mover.
func (c *Clock) Switch(active color.Color, now time.Time) {
	if c.running {
		c.charge(now.Sub(c.lastTick).Milliseconds())
	}
	c.active = active
	c.lastTick = now
}

// Tick subtracts the elapsed real time from the active side. When that
// side reaches zero the clock stops itself and flagged reports which
// side fell.
func (c *Clock) Tick(now time.Time) (state ClockState, flagged color.Color, fell bool) {
	if !c.running {
		return c.State(), "", false
	}

	c.charge(now.Sub(c.lastTick).Milliseconds())
	c.lastTick = now

	if (c.active == color.White && c.whiteMs <= 0) ||
		(c.active == color.Black && c.blackMs <= 0) {
		c.running = false
		return c.State(), c.active, true
	}

	return c.State(), "", false
}

// State returns the current remaining times.
func (c *Clock) State() ClockState {
	return ClockState{WhiteMs: c.whiteMs, BlackMs: c.blackMs, Active: c.active}
}

func (c *Clock) charge(elapsedMs int64) {
	if elapsedMs < 0 {
		elapsedMs = 0
	}

	if c.active == color.White {
		c.whiteMs -= elapsedMs
		if c.whiteMs < 0 {
			c.whiteMs = 0
		}
	} else {
		c.blackMs -= elapsedMs
		if c.blackMs < 0 {
			c.blackMs = 0
		}
	}
}

// FormatClockTime formats a duration in milliseconds to a user-friendly string (e.g., "1:30")
func FormatClockTime(timeMs int64) string {
	if timeMs < 0 {
		timeMs = 0
	}

	totalSeconds := timeMs / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60

	// For times less than 10 seconds, show decimal
	if timeMs < 10000 {
		tenths := (timeMs % 1000) / 100
		return fmt.Sprintf("%d.%d", totalSeconds, tenths)
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
