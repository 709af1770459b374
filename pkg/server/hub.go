package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tecu23/match-server/internal/color"
	"github.com/tecu23/match-server/internal/messages"
	"github.com/tecu23/match-server/pkg/events"
	"github.com/tecu23/match-server/pkg/game"
	"github.com/tecu23/match-server/pkg/repository"
)

const (
	tickInterval   = 100 * time.Millisecond
	persistTimeout = 5 * time.Second
)

// InboundHubMessage are the messages that the hub receives
type InboundHubMessage struct {
	Conn    *Connection             // who sent it
	Message messages.InboundMessage // decoded JSON envelope
}

// persistResult re-enters the loop when an async save completes. The
// generation identifies which game the record belongs to.
type persistResult struct {
	generation uint64
	recordID   string
	err        error
}

// Hub owns the session, the clock and the seat registry. Every inbound
// event (connect, disconnect, client message, clock tick, persistence
// completion) is handled one at a time by the single Run loop, so the
// shared state needs no locking. Broadcasts are fire-and-forget sends
// into per-connection buffers and never block the loop.
type Hub struct {
	connections map[*Connection]bool // Registered connections

	register   chan *Connection       // Incoming registration
	unregister chan *Connection       // Incoming unregistration
	inbound    chan InboundHubMessage // Inbound client messages
	persisted  chan persistResult     // Async persistence completions
	done       chan struct{}

	registry *game.Registry
	session  *game.Session

	// pendingGen tracks the one in-flight save. An explicit reset
	// abandons it so a late completion for a stale session is dropped.
	pendingGen uint64
	hasPending bool

	repo      repository.GameRepository
	publisher *events.Publisher
	logger    *zap.Logger
}

// NewHub creates a new hub around one session.
func NewHub(
	session *game.Session,
	repo repository.GameRepository,
	publisher *events.Publisher,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		inbound:     make(chan InboundHubMessage),
		persisted:   make(chan persistResult, 4),
		done:        make(chan struct{}),
		registry:    game.NewRegistry(),
		session:     session,
		repo:        repo,
		publisher:   publisher,
		logger:      logger,
	}
}

// Run is the main execution of the hub
func (h *Hub) Run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case conn := <-h.register:
			h.handleRegister(conn)

		case conn := <-h.unregister:
			h.handleUnregister(conn)

		case msg := <-h.inbound:
			h.handleInbound(msg)

		case now := <-ticker.C:
			h.handleTick(now)

		case res := <-h.persisted:
			h.handlePersisted(res)

		case <-h.done:
			return
		}
	}
}

// Register queues a connection for registration.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister queues a connection for removal.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Shutdown stops the hub loop.
func (h *Hub) Shutdown() {
	close(h.done)
}

func (h *Hub) handleRegister(conn *Connection) {
	h.connections[conn] = true

	seat := h.registry.Assign(conn.ID)
	switch seat {
	case game.SeatWhite, game.SeatBlack:
		h.sendTo(conn, messages.EventPlayerRole, messages.PlayerRolePayload{Side: seatSide(seat)})
	default:
		h.sendTo(conn, messages.EventSpectatorRole, nil)
	}

	// Bring the newcomer up to date with the current game.
	h.sendTo(conn, messages.EventBoardState, messages.BoardStatePayload{Position: h.session.Position()})
	h.sendTo(conn, messages.EventGameStatus, messages.GameStatusPayload{Status: statusLabel(h.session.Status())})
	h.sendTo(conn, messages.EventTimeUpdate, h.timePayload())

	h.broadcast(messages.EventPlayersUpdate, h.playersPayload())

	h.logger.Info("connection registered",
		zap.String("connection_id", conn.ID.String()),
		zap.String("seat", string(seat)),
		zap.Int("connections", len(h.connections)))

	h.publisher.Publish(events.Event{
		Type: events.EventConnectionOpened,
		Payload: map[string]string{
			"connection_id": conn.ID.String(),
			"seat":          string(seat),
		},
	})

	if h.registry.BothSeated() && h.session.Status() == game.StatusWaiting {
		h.startGame()
	}
}

func (h *Hub) handleUnregister(conn *Connection) {
	if _, ok := h.connections[conn]; !ok {
		return
	}
	delete(h.connections, conn)
	close(conn.send)

	seat := h.registry.Release(conn.ID)

	h.logger.Info("connection unregistered",
		zap.String("connection_id", conn.ID.String()),
		zap.String("seat", string(seat)),
		zap.Int("connections", len(h.connections)))

	if seat != game.SeatWhite && seat != game.SeatBlack {
		// Spectators never affect the session.
		return
	}

	winner := color.Black
	if seat == game.SeatBlack {
		winner = color.White
	}

	// Forfeit a running game; a no-op when the game already ended, so
	// back-to-back disconnects produce exactly one result.
	if result := h.session.End(winner, game.CauseDisconnect); result != nil {
		h.finishGame(result)
	}

	// One seat empty means the session waits for an opponent again.
	if h.session.Status() != game.StatusWaiting {
		h.session.Reset()
		h.broadcast(messages.EventBoardState, messages.BoardStatePayload{Position: h.session.Position()})
		h.broadcast(messages.EventGameStatus, messages.GameStatusPayload{Status: statusLabel(game.StatusWaiting)})
		h.broadcast(messages.EventTimeUpdate, h.timePayload())
	}

	h.broadcast(messages.EventPlayersUpdate, h.playersPayload())
}

// handleInbound routes a decoded client message.
func (h *Hub) handleInbound(msg InboundHubMessage) {
	switch msg.Message.Type {
	case messages.TypeMove:
		var payload messages.MovePayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(msg.Conn, "invalid move payload")
			return
		}
		h.handleMove(msg.Conn, payload)

	case messages.TypeResign:
		h.handleResign(msg.Conn)

	case messages.TypeNewGame:
		h.handleNewGame(msg.Conn)

	case messages.TypeChatMessage:
		var payload messages.ChatPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(msg.Conn, "invalid chat payload")
			return
		}
		h.broadcast(messages.EventChatMessage, messages.ChatMessagePayload{Text: payload.Text})

	default:
		h.sendError(msg.Conn, "unknown message type")
	}
}

func (h *Hub) handleMove(conn *Connection, payload messages.MovePayload) {
	mv := game.Move{From: payload.From, To: payload.To, Promotion: payload.Promotion}

	res, err := h.session.SubmitMove(conn.ID, mv, time.Now())
	switch {
	case err == nil:

	case errors.Is(err, game.ErrNotInProgress),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrIllegalMove):
		// Rejection to sender only, no state change, no broadcast.
		h.sendTo(conn, messages.EventInvalidMove, messages.InvalidMovePayload{Reason: err.Error()})
		return

	default:
		// Adapter fault. The session is untouched.
		h.logger.Error("move processing fault", zap.Error(err))
		h.sendError(conn, "internal error applying move")
		return
	}

	h.broadcast(messages.EventMoveMade, messages.MoveMadePayload{Notation: res.Notation})
	h.broadcast(messages.EventBoardState, messages.BoardStatePayload{Position: res.Position})
	h.broadcast(messages.EventTurnChange, messages.TurnChangePayload{Side: string(res.Turn)})
	h.broadcast(messages.EventTimeUpdate, messages.TimeUpdatePayload{
		WhiteMs: res.Clock.WhiteMs,
		BlackMs: res.Clock.BlackMs,
	})

	h.publisher.Publish(events.Event{
		Type: events.EventMoveApplied,
		Payload: messages.MoveMadePayload{
			Notation: res.Notation,
		},
	})

	if res.Finished != nil {
		h.finishGame(res.Finished)
	}
}

func (h *Hub) handleResign(conn *Connection) {
	result, err := h.session.Resign(conn.ID)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	h.finishGame(result)
}

func (h *Hub) handleNewGame(conn *Connection) {
	if h.session.Status() == game.StatusInProgress {
		h.sendError(conn, "game in progress")
		return
	}
	h.resetSession()
}

func (h *Hub) handleTick(now time.Time) {
	state, result := h.session.Tick(now)

	if result != nil {
		h.broadcast(messages.EventTimeUpdate, messages.TimeUpdatePayload{
			WhiteMs: state.WhiteMs,
			BlackMs: state.BlackMs,
		})
		h.publisher.Publish(events.Event{
			Type:    events.EventFlagFall,
			Payload: messages.GameOverPayload{Winner: winnerLabel(result), Cause: string(result.Cause)},
		})
		h.finishGame(result)
		return
	}

	if h.session.Status() == game.StatusInProgress {
		h.broadcast(messages.EventTimeUpdate, messages.TimeUpdatePayload{
			WhiteMs: state.WhiteMs,
			BlackMs: state.BlackMs,
		})
	}
}

func (h *Hub) handlePersisted(res persistResult) {
	if !h.hasPending || res.generation != h.pendingGen {
		h.logger.Info("discarding stale persistence completion",
			zap.Uint64("generation", res.generation))
		return
	}
	h.hasPending = false

	if res.err != nil {
		h.logger.Error("failed to persist game record", zap.Error(res.err))
		h.broadcast(messages.EventGameSaved, messages.GameSavedPayload{RecordID: nil})
		return
	}

	id := res.recordID
	h.broadcast(messages.EventGameSaved, messages.GameSavedPayload{RecordID: &id})

	h.publisher.Publish(events.Event{
		Type:    events.EventRecordSaved,
		Payload: map[string]string{"record_id": id},
	})
}

func (h *Hub) startGame() {
	white, _ := h.registry.White()
	black, _ := h.registry.Black()

	if !h.session.Start(white, black, time.Now()) {
		return
	}

	state := h.session.ClockState()
	h.broadcast(messages.EventGameStarted, messages.GameStartedPayload{
		Position: h.session.Position(),
		Turn:     string(h.session.Turn()),
		WhiteMs:  state.WhiteMs,
		BlackMs:  state.BlackMs,
	})
	h.broadcast(messages.EventGameStatus, messages.GameStatusPayload{Status: statusLabel(game.StatusInProgress)})
	h.broadcast(messages.EventBoardState, messages.BoardStatePayload{Position: h.session.Position()})
	h.broadcast(messages.EventTurnChange, messages.TurnChangePayload{Side: string(h.session.Turn())})
	h.broadcast(messages.EventTimeUpdate, h.timePayload())

	h.publisher.Publish(events.Event{
		Type: events.EventGameStarted,
		Payload: map[string]string{
			"white": white.String(),
			"black": black.String(),
		},
	})
}

// finishGame broadcasts the terminal result and kicks off the single
// persistence attempt. The save runs outside the loop on a snapshot
// and reports back through the persisted channel.
func (h *Hub) finishGame(result *game.Result) {
	state := h.session.ClockState()
	message := fmt.Sprintf("%s (%s - %s)",
		result.String(),
		game.FormatClockTime(state.WhiteMs),
		game.FormatClockTime(state.BlackMs))

	h.broadcast(messages.EventGameOver, messages.GameOverPayload{
		Winner:  winnerLabel(result),
		Cause:   string(result.Cause),
		Message: message,
	})

	h.publisher.Publish(events.Event{
		Type: events.EventGameOver,
		Payload: messages.GameOverPayload{
			Winner: winnerLabel(result),
			Cause:  string(result.Cause),
		},
	})

	record := h.session.Record(time.Now())
	if record == nil {
		return
	}

	gen := h.session.Generation()
	h.pendingGen = gen
	h.hasPending = true

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		id, err := h.repo.Save(ctx, record)
		h.persisted <- persistResult{generation: gen, recordID: id, err: err}
	}()
}

// resetSession is the external reset: fresh game, black seat freed,
// white occupant kept when still connected. Any in-flight save now
// belongs to a stale session and its completion will be dropped.
func (h *Hub) resetSession() {
	h.hasPending = false
	h.session.Reset()
	displaced := h.registry.Reset(true)

	h.broadcast(messages.EventGameReset, nil)

	for conn := range h.connections {
		if h.registry.SeatOf(conn.ID) == game.SeatWhite {
			h.sendTo(conn, messages.EventPlayerRole, messages.PlayerRolePayload{Side: seatSide(game.SeatWhite)})
		}
	}
	for _, id := range displaced {
		if conn := h.connByID(id); conn != nil {
			h.sendTo(conn, messages.EventSpectatorRole, nil)
		}
	}

	h.broadcast(messages.EventBoardState, messages.BoardStatePayload{Position: h.session.Position()})
	h.broadcast(messages.EventGameStatus, messages.GameStatusPayload{Status: statusLabel(game.StatusWaiting)})
	h.broadcast(messages.EventTimeUpdate, h.timePayload())
	h.broadcast(messages.EventPlayersUpdate, h.playersPayload())

	h.publisher.Publish(events.Event{
		Type:    events.EventSessionReset,
		Payload: map[string]string{"generation": fmt.Sprint(h.session.Generation())},
	})
}

func (h *Hub) connByID(id uuid.UUID) *Connection {
	for conn := range h.connections {
		if conn.ID == id {
			return conn
		}
	}
	return nil
}

func (h *Hub) playersPayload() messages.PlayersUpdatePayload {
	_, whiteOccupied := h.registry.White()
	_, blackOccupied := h.registry.Black()
	return messages.PlayersUpdatePayload{
		WhiteOccupied: whiteOccupied,
		BlackOccupied: blackOccupied,
	}
}

func (h *Hub) timePayload() messages.TimeUpdatePayload {
	state := h.session.ClockState()
	return messages.TimeUpdatePayload{WhiteMs: state.WhiteMs, BlackMs: state.BlackMs}
}

func (h *Hub) sendError(conn *Connection, msg string) {
	h.sendTo(conn, messages.EventError, messages.ErrorPayload{Message: msg})
}

func (h *Hub) sendTo(conn *Connection, event string, payload interface{}) {
	conn.SendJSON(messages.OutboundMessage{Event: event, Payload: payload})
}

func (h *Hub) broadcast(event string, payload interface{}) {
	data, err := json.Marshal(messages.OutboundMessage{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("error marshaling broadcast", zap.Error(err))
		return
	}

	for conn := range h.connections {
		select {
		case conn.send <- data:
		default:
			// Slow consumer, drop rather than block the loop.
		}
	}
}

func seatSide(seat game.Seat) string {
	if seat == game.SeatWhite {
		return string(color.White)
	}
	return string(color.Black)
}

func statusLabel(status game.Status) string {
	if status == game.StatusInProgress {
		return "playing"
	}
	return "waiting"
}

func winnerLabel(result *game.Result) string {
	if result.Draw {
		return "Draw"
	}
	return result.Winner.Name()
}
