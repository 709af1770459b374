package game

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/tecu23/match-server/internal/color"
)

// ErrIllegalMove is returned when the rules engine rejects a move.
var ErrIllegalMove = errors.New("illegal move")

// Cause names the way a game ended.
type Cause string

// All terminal causes the session can report.
const (
	CauseCheckmate    Cause = "checkmate"
	CauseStalemate    Cause = "stalemate"
	CauseInsufficient Cause = "insufficient material"
	CauseRepetition   Cause = "repetition"
	CauseFiftyMove    Cause = "fifty-move rule"
	CauseResignation  Cause = "resignation"
	CauseTime         Cause = "time"
	CauseDisconnect   Cause = "disconnect"
	CauseUnknown      Cause = "unknown"
)

// Move is a single move as submitted by a client.
type Move struct {
	From      string
	To        string
	Promotion string
}

// UCI returns the move in long algebraic (UCI) form, e.g. "e2e4" or
// "e7e8q".
func (m Move) UCI() string {
	return strings.ToLower(strings.TrimSpace(m.From) + strings.TrimSpace(m.To) + strings.TrimSpace(m.Promotion))
}

// Rules wraps the external move-legality engine. It holds the current
// position and nothing else; legality, terminal detection and notation
// are all delegated to the engine. Illegal input yields ErrIllegalMove,
// never a panic escaping the adapter boundary.
type Rules struct {
	game *nchess.Game
}

// NewRules starts a game from the standard initial position.
func NewRules() *Rules {
	return &Rules{game: nchess.NewGame()}
}

// NewRulesFromFEN loads a position from its serialized form.
func NewRulesFromFEN(fen string) (*Rules, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}
	return &Rules{game: nchess.NewGame(opt)}, nil
}

// Apply validates and applies a move, returning its short algebraic
// notation. The position is unchanged when the move is rejected.
func (r *Rules) Apply(m Move) (notation string, err error) {
	defer func() {
		// The engine is trusted not to panic on decoded input, but a
		// fault here must never leave the adapter.
		if rec := recover(); rec != nil {
			notation = ""
			err = fmt.Errorf("rules engine fault: %v", rec)
		}
	}()

	uci := m.UCI()
	pos := r.game.Position()

	mv, derr := nchess.UCINotation{}.Decode(pos, uci)
	if derr != nil {
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}

	san := nchess.AlgebraicNotation{}.Encode(pos, mv)

	if perr := r.game.PushNotationMove(uci, nchess.UCINotation{}, nil); perr != nil {
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}

	r.claimDraws()

	return san, nil
}

// claimDraws takes any draw the position has become entitled to. The
// engine terminates on its own only at the forced thresholds (fivefold
// repetition, the 75-move rule); with no player around to claim,
// threefold repetition and the fifty-move rule must be claimed here or
// the game never ends on them.
func (r *Rules) claimDraws() {
	for _, method := range r.game.EligibleDraws() {
		if method == nchess.ThreefoldRepetition || method == nchess.FiftyMoveRule {
			if derr := r.game.Draw(method); derr == nil {
				return
			}
		}
	}
}

// Turn returns the side to move.
func (r *Rules) Turn() color.Color {
	if r.game.Position().Turn() == nchess.White {
		return color.White
	}
	return color.Black
}

// FEN serializes the current position.
func (r *Rules) FEN() string {
	return r.game.FEN()
}

// PGN returns the full move log as PGN text.
func (r *Rules) PGN() string {
	return r.game.String()
}

// IsTerminal reports whether the position has a decided outcome.
func (r *Rules) IsTerminal() bool {
	return r.game.Outcome() != nchess.NoOutcome
}

// Winner returns the winning side of a terminal position. draw is true
// for every non-decisive outcome.
func (r *Rules) Winner() (winner color.Color, draw bool) {
	switch r.game.Outcome() {
	case nchess.WhiteWon:
		return color.White, false
	case nchess.BlackWon:
		return color.Black, false
	default:
		return "", true
	}
}

// ClassifyTerminal maps the engine's termination method onto a Cause.
func (r *Rules) ClassifyTerminal() Cause {
	switch r.game.Method() {
	case nchess.Checkmate:
		return CauseCheckmate
	case nchess.Stalemate:
		return CauseStalemate
	case nchess.InsufficientMaterial:
		return CauseInsufficient
	case nchess.ThreefoldRepetition, nchess.FivefoldRepetition:
		return CauseRepetition
	case nchess.FiftyMoveRule, nchess.SeventyFiveMoveRule:
		return CauseFiftyMove
	default:
		return CauseUnknown
	}
}
