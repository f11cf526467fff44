package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/events"
	ws "github.com/stemsi/courseware/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams content change events of a batch to connected clients.
type WSHandler struct {
	source   events.Source
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(source events.Source, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		source:   source,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// BatchEvents godoc
// WS /ws/v1/batches/:batch_id/events
// Pushes a frame whenever folders, files or the roster of the batch change.
// Clients react by refetching the affected list.
func (h *WSHandler) BatchEvents(c *gin.Context) {
	batchID, ok := paramID(c, "batch_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := h.source.Subscribe(ctx, batchID)
	if err != nil {
		h.log.Error().Err(err).Int64("batch_id", batchID).Msg("Subscribe failed")
		failService(c, err)
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int64("batch_id", batchID).Logger()
	wsLog.Debug().Msg("Client connected")

	// The read loop only exists to notice the client going away and to
	// process pong control frames.
	ws.KeepAlive(conn)
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
		}
	}()

	if err := ws.WriteTyped(conn, ws.Frame{Event: ws.EventReady, BatchID: batchID}); err != nil {
		return
	}

	ping := time.NewTicker(ws.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Client disconnected")
			return
		case ev, open := <-sub.Events():
			if !open {
				_ = ws.WriteError(conn, "event stream closed")
				return
			}
			if err := ws.WriteTyped(conn, ws.Frame{Event: ws.EventContent, BatchID: batchID, Content: &ev}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-ping.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}
