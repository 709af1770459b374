package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tecu23/match-server/internal/color"
)

// Status is the lifecycle state of the session.
type Status string

// Waiting -> InProgress -> Finished -> (reset) -> Waiting.
const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "playing"
	StatusFinished   Status = "finished"
)

// Rejection reasons for SubmitMove and Resign.
var (
	ErrNotInProgress = errors.New("no game in progress")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNotAPlayer    = errors.New("not a seated player")
)

// Result is the outcome of a finished game. Winner is empty on a draw.
type Result struct {
	Winner color.Color
	Draw   bool
	Cause  Cause
}

// String renders the result the way it is persisted, e.g.
// "White wins by resignation" or "Draw by stalemate".
func (r Result) String() string {
	if r.Draw {
		return fmt.Sprintf("Draw by %s", r.Cause)
	}
	return fmt.Sprintf("%s wins by %s", r.Winner.Name(), r.Cause)
}

// MoveResult is everything the hub needs to broadcast after an
// accepted move. Finished is non-nil when the move ended the game.
type MoveResult struct {
	Notation string
	Position string
	Turn     color.Color
	Clock    ClockState
	Finished *Result
}

// Session owns the canonical game record: position, move history,
// player identities, turn and status. Exactly one exists per process;
// every mutation happens on the hub loop, so the session carries no
// locking of its own.
type Session struct {
	rules *Rules
	clock *Clock

	status  Status
	moves   []string
	white   uuid.UUID
	black   uuid.UUID
	started time.Time
	result  *Result

	// generation increments on every Reset so late persistence
	// completions for a previous game can be recognized as stale.
	generation uint64

	allotmentMs int64
	logger      *zap.Logger
}

// NewSession creates a waiting session with the given per-side clock
// allotment.
func NewSession(allotmentMs int64, logger *zap.Logger) *Session {
	return &Session{
		rules:       NewRules(),
		clock:       NewClock(allotmentMs),
		status:      StatusWaiting,
		allotmentMs: allotmentMs,
		logger:      logger,
	}
}

// Status returns the lifecycle state.
func (s *Session) Status() Status { return s.status }

// Generation returns the reset counter guarding stale async completions.
func (s *Session) Generation() uint64 { return s.generation }

// Turn returns the side to move.
func (s *Session) Turn() color.Color { return s.rules.Turn() }

// Position returns the serialized current position.
func (s *Session) Position() string { return s.rules.FEN() }

// ClockState returns a snapshot of both remaining times.
func (s *Session) ClockState() ClockState { return s.clock.State() }

// Moves returns a copy of the accepted move notations.
func (s *Session) Moves() []string {
	return append([]string(nil), s.moves...)
}

// Result returns the outcome, nil unless the session is Finished.
func (s *Session) Result() *Result { return s.result }

// Start begins the game. Valid only from Waiting with both seats
// known; anything else is a no-op returning false.
func (s *Session) Start(white, black uuid.UUID, now time.Time) bool {
	if s.status != StatusWaiting {
		return false
	}

	s.white = white
	s.black = black
	s.started = now
	s.status = StatusInProgress
	s.clock.Start(s.rules.Turn(), now)

	s.logger.Info("game started",
		zap.String("white", white.String()),
		zap.String("black", black.String()),
		zap.Int64("allotment_ms", s.allotmentMs))

	return true
}

// SubmitMove validates turn ownership and legality, then applies the
// move. Rejections leave the session untouched: ErrNotInProgress and
// ErrNotYourTurn are protocol violations, ErrIllegalMove comes from
// the rules engine, anything else is an adapter fault.
func (s *Session) SubmitMove(connID uuid.UUID, mv Move, now time.Time) (*MoveResult, error) {
	if s.status != StatusInProgress {
		return nil, ErrNotInProgress
	}

	turn := s.rules.Turn()
	if (turn == color.White && connID != s.white) ||
		(turn == color.Black && connID != s.black) {
		return nil, ErrNotYourTurn
	}

	notation, err := s.rules.Apply(mv)
	if err != nil {
		return nil, err
	}

	s.moves = append(s.moves, notation)

	newTurn := s.rules.Turn()
	s.clock.Switch(newTurn, now)

	s.logger.Info("move accepted",
		zap.String("move", notation),
		zap.String("new_turn", string(newTurn)))

	res := &MoveResult{
		Notation: notation,
		Position: s.rules.FEN(),
		Turn:     newTurn,
		Clock:    s.clock.State(),
	}

	if s.rules.IsTerminal() {
		winner, draw := s.rules.Winner()
		res.Finished = s.finish(Result{
			Winner: winner,
			Draw:   draw,
			Cause:  s.rules.ClassifyTerminal(),
		})
	}

	return res, nil
}

// Resign ends the game in favor of the resigner's opponent. Only a
// seated player may resign, and only while the game runs.
func (s *Session) Resign(connID uuid.UUID) (*Result, error) {
	if s.status != StatusInProgress {
		return nil, ErrNotInProgress
	}

	var winner color.Color
	switch connID {
	case s.white:
		winner = color.Black
	case s.black:
		winner = color.White
	default:
		return nil, ErrNotAPlayer
	}

	return s.finish(Result{Winner: winner, Cause: CauseResignation}), nil
}

// End finishes the game from outside the move flow: flag-fall or a
// player disconnect. No-op returning nil when the game is not running,
// which makes back-to-back teardowns safe.
func (s *Session) End(winner color.Color, cause Cause) *Result {
	if s.status != StatusInProgress {
		return nil
	}
	return s.finish(Result{Winner: winner, Cause: cause})
}

// Tick advances the clock. On flag-fall the game ends immediately with
// the other side winning on time.
func (s *Session) Tick(now time.Time) (ClockState, *Result) {
	if s.status != StatusInProgress {
		return s.clock.State(), nil
	}

	state, flagged, fell := s.clock.Tick(now)
	if !fell {
		return state, nil
	}

	return state, s.finish(Result{Winner: flagged.Opp(), Cause: CauseTime})
}

func (s *Session) finish(res Result) *Result {
	s.clock.Stop()
	s.status = StatusFinished
	r := res
	s.result = &r

	s.logger.Info("game finished",
		zap.String("result", r.String()),
		zap.String("cause", string(r.Cause)))

	return s.result
}

// Reset re-initializes the session to Waiting: fresh position, fresh
// clocks, empty history, no result. The generation bump marks any
// in-flight persistence as stale.
func (s *Session) Reset() {
	s.rules = NewRules()
	s.clock = NewClock(s.allotmentMs)
	s.status = StatusWaiting
	s.moves = nil
	s.white = uuid.UUID{}
	s.black = uuid.UUID{}
	s.started = time.Time{}
	s.result = nil
	s.generation++
}

// Record builds the immutable persisted summary of a finished game.
// Nil unless the session is Finished; a Waiting-state teardown never
// produces a record.
func (s *Session) Record(now time.Time) *GameRecord {
	if s.status != StatusFinished || s.result == nil {
		return nil
	}

	duration := int64(now.Sub(s.started).Seconds())
	if duration < 0 {
		duration = 0
	}

	return &GameRecord{
		ID:            uuid.New().String(),
		WhitePlayer:   s.white.String(),
		BlackPlayer:   s.black.String(),
		Moves:         s.Moves(),
		Result:        s.result.String(),
		DurationSec:   duration,
		MoveLog:       s.rules.PGN(),
		FinalPosition: s.rules.FEN(),
		CreatedAt:     now,
	}
}
