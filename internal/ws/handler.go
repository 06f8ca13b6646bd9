package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saker-ai/avatar-server/internal/anim"
	"github.com/saker-ai/avatar-server/internal/command"
	appconfig "github.com/saker-ai/avatar-server/internal/config"
	"github.com/saker-ai/avatar-server/internal/metrics"
	"github.com/saker-ai/avatar-server/internal/protocol"
	"github.com/saker-ai/avatar-server/internal/sched"
)

// ErrLoopStopped is returned when work is posted after Run has exited.
var ErrLoopStopped = errors.New("event loop stopped")

// idleWait bounds the timer when no deferred task is pending.
const idleWait = time.Hour

// Handler accepts controller connections and pumps their frames onto a
// single event loop. The loop is the only goroutine that touches the
// animation controller and the deferred-task queue, so channel
// transitions are atomic for every observer.
type Handler struct {
	logger     *zap.Logger
	config     appconfig.Config
	upgrader   websocket.Upgrader
	dispatcher *command.Dispatcher
	controller *anim.Controller
	queue      *sched.Queue

	metrics *metrics.Metrics

	events chan func()
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	conn      *websocket.Conn
	sendMu    sync.Mutex
	logger    *zap.Logger
	clientUID string
}

// NewHandler wires the connection manager to the dispatcher, controller
// and queue. Run must be started before connections arrive.
func NewHandler(logger *zap.Logger, cfg appconfig.Config, dispatcher *command.Dispatcher, controller *anim.Controller, queue *sched.Queue, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger:     logger,
		config:     cfg,
		dispatcher: dispatcher,
		controller: controller,
		queue:      queue,
		metrics:    m,
		events:     make(chan func(), 128),
		done:       make(chan struct{}),
		sessions:   make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Run drives the event loop until ctx is cancelled: it executes posted
// events in arrival order and fires due deferred tasks, multiplexed on
// one select with no blocking sleeps.
func (h *Handler) Run(ctx context.Context) {
	defer h.once.Do(func() { close(h.done) })

	h.scheduleBlink()

	timer := time.NewTimer(idleWait)
	defer timer.Stop()

	for {
		h.rearm(timer)
		select {
		case <-ctx.Done():
			return
		case ev := <-h.events:
			ev()
		case now := <-timer.C:
			h.queue.RunDue(now)
		}
	}
}

func (h *Handler) rearm(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	wait := idleWait
	if due, ok := h.queue.NextDue(); ok {
		wait = time.Until(due)
		if wait < 0 {
			wait = 0
		}
	}
	timer.Reset(wait)
}

func (h *Handler) scheduleBlink() {
	interval := h.config.Animation.BlinkInterval()
	if interval <= 0 {
		return
	}
	h.queue.Schedule(interval, func() {
		h.controller.Blink()
		h.scheduleBlink()
	})
}

// post hands fn to the event loop. Events from one connection keep
// their arrival order.
func (h *Handler) post(fn func()) error {
	select {
	case h.events <- fn:
		return nil
	case <-h.done:
		return ErrLoopStopped
	}
}

// Handle upgrades one HTTP request to a controller connection, sends
// the welcome snapshot and pumps inbound frames until the peer closes.
// Upgrade failures are logged and discarded, never fatal.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sess := &session{
		conn:      conn,
		logger:    h.logger,
		clientUID: uuid.NewString(),
	}
	h.registerSession(sess)
	h.metrics.ConnectionOpened()
	h.logger.Info("controller connected",
		zap.String("session_id", sess.clientUID),
		zap.String("remote_addr", r.RemoteAddr),
	)

	// The welcome snapshot is built on the loop so it reflects every
	// command processed before this connection, not a stale default.
	if err := h.post(func() { sess.sendWelcome(h.config.WelcomeMessage, h.controller.State()) }); err != nil {
		h.logger.Warn("welcome dropped", zap.Error(err))
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			h.logger.Debug("ws connection closed",
				zap.String("session_id", sess.clientUID),
				zap.Error(err),
			)
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		frame := data
		if err := h.post(func() { h.handleFrame(sess, frame) }); err != nil {
			break
		}
	}

	h.unregisterSession(sess.clientUID)
	h.metrics.ConnectionClosed()
	h.logger.Info("controller disconnected", zap.String("session_id", sess.clientUID))
}

// handleFrame runs on the event loop.
func (h *Handler) handleFrame(sess *session, frame []byte) {
	resp, err := h.dispatcher.Dispatch(frame)
	if err != nil {
		// No commandId to address a reply to; log and drop.
		h.logger.Warn("dropping malformed command",
			zap.String("session_id", sess.clientUID),
			zap.Error(err),
		)
		return
	}
	if resp != nil {
		sess.sendJSON(resp)
	}
}

// StateSnapshot reads the channel state via a loop round-trip.
func (h *Handler) StateSnapshot(ctx context.Context) (anim.State, error) {
	reply := make(chan anim.State, 1)
	if err := h.post(func() { reply <- h.controller.State() }); err != nil {
		return anim.State{}, err
	}
	select {
	case state := <-reply:
		return state, nil
	case <-ctx.Done():
		return anim.State{}, ctx.Err()
	case <-h.done:
		return anim.State{}, ErrLoopStopped
	}
}

// SessionCount returns the number of open connections.
func (h *Handler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Handler) registerSession(sess *session) {
	h.mu.Lock()
	h.sessions[sess.clientUID] = sess
	h.mu.Unlock()
}

func (h *Handler) unregisterSession(clientUID string) {
	h.mu.Lock()
	delete(h.sessions, clientUID)
	h.mu.Unlock()
}

func (s *session) sendWelcome(message string, state anim.State) {
	s.sendJSON(protocol.Welcome{
		Type:    "welcome",
		Message: message,
		State: protocol.AvatarState{
			Animation: state.Clip,
			Emotion:   state.Emotion,
			LookAt:    state.Look,
		},
	})
}

func (s *session) sendJSON(payload any) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.conn.WriteJSON(payload); err != nil {
		s.logger.Debug("ws send failed", zap.Error(err))
	}
}
