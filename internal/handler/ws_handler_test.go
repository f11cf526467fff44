package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/events"
	"github.com/stemsi/courseware/internal/model"
	ws "github.com/stemsi/courseware/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanStream struct {
	events chan model.ContentEvent
}

func (s chanStream) Events() <-chan model.ContentEvent { return s.events }
func (s chanStream) Close() error                      { return nil }

type chanSource struct {
	stream    chanStream
	batchID   int64
	subscribe chan struct{}
}

func (s *chanSource) Subscribe(_ context.Context, batchID int64) (events.Stream, error) {
	s.batchID = batchID
	close(s.subscribe)
	return s.stream, nil
}

func TestBatchEventsStreamsContentFrames(t *testing.T) {
	source := &chanSource{
		stream:    chanStream{events: make(chan model.ContentEvent)},
		subscribe: make(chan struct{}),
	}
	h := NewWSHandler(source, zerolog.Nop(), nil)

	router := gin.New()
	router.GET("/ws/v1/batches/:batch_id/events", h.BatchEvents)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/batches/4/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var ready ws.Frame
	require.NoError(t, conn.ReadJSON(&ready))
	assert.Equal(t, ws.EventReady, ready.Event)
	<-source.subscribe
	assert.Equal(t, int64(4), source.batchID)

	// Each frame carries its own event.
	source.stream.events <- model.ContentEvent{Type: model.EventFoldersChanged, BatchID: 4}
	source.stream.events <- model.ContentEvent{Type: model.EventFilesChanged, BatchID: 4, FolderID: 9}

	var first, second ws.Frame
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	require.NotNil(t, first.Content)
	require.NotNil(t, second.Content)
	assert.Equal(t, ws.EventContent, first.Event)
	assert.Equal(t, model.EventFoldersChanged, first.Content.Type)
	assert.Equal(t, model.EventFilesChanged, second.Content.Type)
	assert.Equal(t, int64(9), second.Content.FolderID)
	assert.Equal(t, int64(4), second.BatchID)
}
