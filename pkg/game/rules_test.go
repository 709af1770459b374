package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecu23/match-server/internal/color"
)

func TestApplyLegalMove(t *testing.T) {
	r := NewRules()
	require.Equal(t, color.White, r.Turn())

	san, err := r.Apply(Move{From: "e2", To: "e4"})
	require.NoError(t, err)
	assert.Equal(t, "e4", san)
	assert.Equal(t, color.Black, r.Turn())
	assert.False(t, r.IsTerminal())
}

func TestApplyIllegalMoveLeavesPositionUnchanged(t *testing.T) {
	r := NewRules()
	fen := r.FEN()

	_, err := r.Apply(Move{From: "e2", To: "e5"})
	require.ErrorIs(t, err, ErrIllegalMove)

	assert.Equal(t, color.White, r.Turn())
	assert.Equal(t, fen, r.FEN())
}

func TestMoveUCI(t *testing.T) {
	assert.Equal(t, "e2e4", Move{From: "e2", To: "e4"}.UCI())
	assert.Equal(t, "e7e8q", Move{From: "E7", To: "E8", Promotion: "Q"}.UCI())
}

func TestNewRulesFromFEN(t *testing.T) {
	r, err := NewRulesFromFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	require.NoError(t, err)
	assert.Equal(t, color.Black, r.Turn())

	_, err = NewRulesFromFEN("not a position")
	require.Error(t, err)
}

func TestFoolsMateIsCheckmate(t *testing.T) {
	r := NewRules()
	for _, mv := range []Move{
		{From: "f2", To: "f3"},
		{From: "e7", To: "e5"},
		{From: "g2", To: "g4"},
		{From: "d8", To: "h4"},
	} {
		_, err := r.Apply(mv)
		require.NoError(t, err)
	}

	require.True(t, r.IsTerminal())
	assert.Equal(t, CauseCheckmate, r.ClassifyTerminal())

	// White is to move in the mated position, so Black wins.
	assert.Equal(t, color.White, r.Turn())
	winner, draw := r.Winner()
	assert.False(t, draw)
	assert.Equal(t, color.Black, winner)
}

func TestStalemateIsDraw(t *testing.T) {
	// Sam Loyd's ten-move stalemate.
	r := NewRules()
	for i, mv := range []Move{
		{From: "e2", To: "e3"}, {From: "a7", To: "a5"},
		{From: "d1", To: "h5"}, {From: "a8", To: "a6"},
		{From: "h5", To: "a5"}, {From: "h7", To: "h5"},
		{From: "a5", To: "c7"}, {From: "a6", To: "h6"},
		{From: "h2", To: "h4"}, {From: "f7", To: "f6"},
		{From: "c7", To: "d7"}, {From: "e8", To: "f7"},
		{From: "d7", To: "b7"}, {From: "d8", To: "d3"},
		{From: "b7", To: "b8"}, {From: "d3", To: "h7"},
		{From: "b8", To: "c8"}, {From: "f7", To: "g6"},
		{From: "c8", To: "e6"},
	} {
		_, err := r.Apply(mv)
		require.NoErrorf(t, err, "move %d rejected", i+1)
	}

	require.True(t, r.IsTerminal())
	assert.Equal(t, CauseStalemate, r.ClassifyTerminal())

	_, draw := r.Winner()
	assert.True(t, draw)
}

func TestThreefoldRepetitionIsDraw(t *testing.T) {
	r := NewRules()

	// Each knight shuffle returns to the starting position. It stands
	// twice after round one and the game must end on its third
	// occurrence, not at the forced fivefold threshold.
	shuffle := []Move{
		{From: "g1", To: "f3"}, {From: "g8", To: "f6"},
		{From: "f3", To: "g1"}, {From: "f6", To: "g8"},
	}

	for _, mv := range shuffle {
		_, err := r.Apply(mv)
		require.NoError(t, err)
	}
	assert.False(t, r.IsTerminal())

	for _, mv := range shuffle {
		_, err := r.Apply(mv)
		require.NoError(t, err)
	}

	require.True(t, r.IsTerminal())
	assert.Equal(t, CauseRepetition, r.ClassifyTerminal())

	_, draw := r.Winner()
	assert.True(t, draw)
}
