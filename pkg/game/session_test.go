package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tecu23/match-server/internal/color"
)

func newTestSession(allotmentMs int64) (*Session, uuid.UUID, uuid.UUID) {
	return NewSession(allotmentMs, zap.NewNop()), uuid.New(), uuid.New()
}

func TestStartOnlyFromWaiting(t *testing.T) {
	s, white, black := newTestSession(600000)

	require.Equal(t, StatusWaiting, s.Status())
	require.True(t, s.Start(white, black, time.Now()))
	assert.Equal(t, StatusInProgress, s.Status())

	// Starting an in-progress game is a no-op.
	assert.False(t, s.Start(white, black, time.Now()))
}

func TestSubmitMoveRequiresInProgress(t *testing.T) {
	s, white, _ := newTestSession(600000)

	_, err := s.SubmitMove(white, Move{From: "e2", To: "e4"}, time.Now())
	assert.ErrorIs(t, err, ErrNotInProgress)
	assert.Empty(t, s.Moves())
}

func TestSubmitMoveTurnOwnership(t *testing.T) {
	s, white, black := newTestSession(600000)
	spectator := uuid.New()
	require.True(t, s.Start(white, black, time.Now()))

	_, err := s.SubmitMove(black, Move{From: "e7", To: "e5"}, time.Now())
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = s.SubmitMove(spectator, Move{From: "e2", To: "e4"}, time.Now())
	assert.ErrorIs(t, err, ErrNotYourTurn)

	res, err := s.SubmitMove(white, Move{From: "e2", To: "e4"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, color.Black, res.Turn)

	// White may not move twice in a row.
	_, err = s.SubmitMove(white, Move{From: "d2", To: "d4"}, time.Now())
	assert.ErrorIs(t, err, ErrNotYourTurn)

	assert.Equal(t, []string{"e4"}, s.Moves())
}

func TestRejectedMovesNeverAppendHistory(t *testing.T) {
	s, white, black := newTestSession(600000)
	require.True(t, s.Start(white, black, time.Now()))

	turn := s.Turn()
	_, err := s.SubmitMove(white, Move{From: "e2", To: "e5"}, time.Now())
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.Empty(t, s.Moves())
	assert.Equal(t, turn, s.Turn())
}

func TestResignationScenario(t *testing.T) {
	// White connects, Black connects, clocks begin at 600000/600000.
	s, white, black := newTestSession(600000)
	started := time.Now()
	require.True(t, s.Start(white, black, started))

	state := s.ClockState()
	assert.Equal(t, int64(600000), state.WhiteMs)
	assert.Equal(t, int64(600000), state.BlackMs)

	res, err := s.SubmitMove(white, Move{From: "e2", To: "e4"}, started.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, color.Black, res.Turn)
	assert.Nil(t, res.Finished)

	result, err := s.Resign(black)
	require.NoError(t, err)
	assert.Equal(t, color.White, result.Winner)
	assert.Equal(t, CauseResignation, result.Cause)
	assert.Equal(t, StatusFinished, s.Status())

	record := s.Record(started.Add(2 * time.Second))
	require.NotNil(t, record)
	assert.Equal(t, "White wins by resignation", record.Result)
	assert.Equal(t, []string{"e4"}, record.Moves)
	assert.Equal(t, white.String(), record.WhitePlayer)
	assert.Equal(t, black.String(), record.BlackPlayer)
	assert.Equal(t, int64(2), record.DurationSec)
	assert.NotEmpty(t, record.FinalPosition)
	assert.NotEmpty(t, record.MoveLog)
}

func TestResignRejections(t *testing.T) {
	s, white, black := newTestSession(600000)

	_, err := s.Resign(white)
	assert.ErrorIs(t, err, ErrNotInProgress)

	require.True(t, s.Start(white, black, time.Now()))
	_, err = s.Resign(uuid.New())
	assert.ErrorIs(t, err, ErrNotAPlayer)
	assert.Equal(t, StatusInProgress, s.Status())
}

func TestEndFiresExactlyOnce(t *testing.T) {
	s, white, black := newTestSession(600000)
	require.True(t, s.Start(white, black, time.Now()))

	result := s.End(color.Black, CauseDisconnect)
	require.NotNil(t, result)
	assert.Equal(t, color.Black, result.Winner)
	assert.Equal(t, CauseDisconnect, result.Cause)

	// Second teardown is a no-op with respect to the result.
	assert.Nil(t, s.End(color.White, CauseDisconnect))
	assert.Equal(t, color.Black, s.Result().Winner)
}

func TestFlagFallEndsGameOnce(t *testing.T) {
	s, white, black := newTestSession(100)
	t0 := time.Now()
	require.True(t, s.Start(white, black, t0))

	state, result := s.Tick(t0.Add(150 * time.Millisecond))
	require.NotNil(t, result)
	assert.Equal(t, color.Black, result.Winner)
	assert.Equal(t, CauseTime, result.Cause)
	assert.Equal(t, int64(0), state.WhiteMs)
	assert.Equal(t, StatusFinished, s.Status())

	// Clocks freeze once the game is over.
	state, result = s.Tick(t0.Add(time.Second))
	assert.Nil(t, result)
	assert.Equal(t, int64(100), state.BlackMs)
}

func TestCheckmateFinishesWithMoverOpponentToMove(t *testing.T) {
	s, white, black := newTestSession(600000)
	require.True(t, s.Start(white, black, time.Now()))

	moves := []struct {
		conn uuid.UUID
		mv   Move
	}{
		{white, Move{From: "f2", To: "f3"}},
		{black, Move{From: "e7", To: "e5"}},
		{white, Move{From: "g2", To: "g4"}},
		{black, Move{From: "d8", To: "h4"}},
	}

	var last *MoveResult
	for _, m := range moves {
		res, err := s.SubmitMove(m.conn, m.mv, time.Now())
		require.NoError(t, err)
		last = res
	}

	require.NotNil(t, last.Finished)
	assert.Equal(t, color.Black, last.Finished.Winner)
	assert.Equal(t, CauseCheckmate, last.Finished.Cause)
	assert.Len(t, s.Moves(), 4)
	assert.Equal(t, StatusFinished, s.Status())
}

func TestResetReturnsToWaiting(t *testing.T) {
	s, white, black := newTestSession(600000)
	require.True(t, s.Start(white, black, time.Now()))
	_, err := s.Resign(white)
	require.NoError(t, err)

	gen := s.Generation()
	s.Reset()

	assert.Equal(t, StatusWaiting, s.Status())
	assert.Equal(t, gen+1, s.Generation())
	assert.Empty(t, s.Moves())
	assert.Nil(t, s.Result())
	assert.Nil(t, s.Record(time.Now()))
	assert.Equal(t, color.White, s.Turn())

	// The waiting->playing sequence works again after a reset.
	assert.True(t, s.Start(white, black, time.Now()))
}

func TestNoRecordUnlessFinished(t *testing.T) {
	s, white, black := newTestSession(600000)
	assert.Nil(t, s.Record(time.Now()))

	require.True(t, s.Start(white, black, time.Now()))
	assert.Nil(t, s.Record(time.Now()))
}
