package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/openivr/call-server/internal/domain/call"
	"github.com/openivr/call-server/internal/domain/resolution"
	"github.com/openivr/call-server/internal/infrastructure/metrics"
	"github.com/openivr/call-server/internal/interfaces/httpserver/responses"
	"github.com/openivr/call-server/internal/worker"
)

// Snapshot is the aggregated session view emitted to the observer on
// every tick.
type Snapshot struct {
	Status       call.Status       `json:"status"`
	Transcript   string            `json:"transcript"`
	Timestamp    time.Time         `json:"timestamp"`
	IVRConnected bool              `json:"ivr_connected"`
	Attributes   map[string]string `json:"attributes"`
	ResponseSent *call.Answer      `json:"responseSent,omitempty"`
}

// endedNotice is the final frame sent when the call reaches a terminal
// status.
type endedNotice struct {
	Status  call.Status `json:"status"`
	Message string      `json:"message"`
}

// StreamHandler owns one observer WebSocket per session: it runs a
// connection-scoped segment fetch task, resolves new caller utterances
// and emits snapshots at a fixed cadence until the session ends or the
// observer disconnects.
type StreamHandler struct {
	store        call.Store
	fetcher      *worker.Fetcher
	pipeline     *resolution.Pipeline
	emitInterval time.Duration
	fetchCadence time.Duration
	upgrader     websocket.Upgrader
	log          zerolog.Logger
}

// NewStreamHandler creates the live broadcaster.
func NewStreamHandler(
	store call.Store,
	fetcher *worker.Fetcher,
	pipeline *resolution.Pipeline,
	emitInterval time.Duration,
	fetchCadence time.Duration,
	log zerolog.Logger,
) *StreamHandler {
	return &StreamHandler{
		store:        store,
		fetcher:      fetcher,
		pipeline:     pipeline,
		emitInterval: emitInterval,
		fetchCadence: fetchCadence,
		upgrader: websocket.Upgrader{
			// CORS policy is permissive for the HTTP surface; the
			// stream follows it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log.With().Str("component", "live-broadcaster").Logger(),
	}
}

// Stream upgrades the request and streams session snapshots.
func (h *StreamHandler) Stream(c *gin.Context) {
	id := c.Param("id")

	// Reject unknown sessions before upgrading.
	if _, err := h.store.Get(c.Request.Context(), id); err != nil {
		responses.HandleError(c, err, "contact not found")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade failures already wrote the HTTP response.
		return
	}
	defer conn.Close()

	metrics.StreamConnections.Inc()
	defer metrics.StreamConnections.Dec()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.log.With().Str("contact_id", id).Logger()
	log.Info().Msg("observer attached")

	// Read pump: the observer sends nothing meaningful, but reading is
	// how disconnects surface. Cancelling ctx stops the fetch task and
	// the write loop promptly.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	go h.runFetchTask(ctx, id)

	h.runWriteLoop(ctx, conn, id, log)
}

// runFetchTask is the connection-owned background fetch: one fetch
// cycle per cadence tick until the session is terminal or the observer
// goes away.
func (h *StreamHandler) runFetchTask(ctx context.Context, id string) {
	ticker := time.NewTicker(h.fetchCadence)
	defer ticker.Stop()

	for {
		h.fetcher.FetchOnce(ctx, id)

		sess, err := h.store.Get(ctx, id)
		if err != nil || sess.Status.IsTerminal() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *StreamHandler) runWriteLoop(ctx context.Context, conn *websocket.Conn, id string, log zerolog.Logger) {
	ticker := time.NewTicker(h.emitInterval)
	defer ticker.Stop()

	for {
		sess, err := h.store.Get(ctx, id)
		if err != nil {
			log.Debug().Msg("session gone, closing stream")
			return
		}

		answer, err := h.pipeline.ResolveNew(ctx, id)
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("resolution pass failed")
		}
		if answer == nil {
			answer = sess.LastAnswer
		}

		snapshot := Snapshot{
			Status:       sess.Status,
			Transcript:   call.FormatTranscript(call.AssembleTranscript(sess.Transcript)),
			Timestamp:    time.Now(),
			IVRConnected: sess.Status.IsConnected(),
			Attributes:   sess.Attributes,
			ResponseSent: answer,
		}
		if err := conn.WriteJSON(snapshot); err != nil {
			h.teardown(id, sess.Status, log, "write failed")
			return
		}

		if sess.Status.IsTerminal() {
			_ = conn.WriteJSON(endedNotice{Status: sess.Status, Message: "Call ended"})
			h.store.Remove(context.WithoutCancel(ctx), id)
			log.Info().Str("status", string(sess.Status)).Msg("session ended, stream closed")
			return
		}

		select {
		case <-ctx.Done():
			h.teardown(id, sess.Status, log, "observer disconnected")
			return
		case <-ticker.C:
		}
	}
}

// teardown runs the disconnect path: connection-scoped resources die
// with the context; the shared session entry is removed only when the
// call is already terminal, so a reattaching observer still finds it.
func (h *StreamHandler) teardown(id string, status call.Status, log zerolog.Logger, reason string) {
	if status.IsTerminal() {
		h.store.Remove(context.Background(), id)
	}
	log.Info().Str("reason", reason).Msg("stream torn down")
}
