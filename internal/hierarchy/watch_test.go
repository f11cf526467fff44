package hierarchy

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/client"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pushBackend replaces the websocket subscription with a plain channel.
type pushBackend struct {
	*client.Client
	events chan model.ContentEvent
}

func (b *pushBackend) SubscribeBatch(context.Context, int64) (<-chan model.ContentEvent, error) {
	return b.events, nil
}

func TestWatchRefetchesNamedList(t *testing.T) {
	srv := newFakeServer(t)
	backend := &pushBackend{Client: srv.start(), events: make(chan model.ContentEvent)}
	nav := New(backend, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := srv.addCourse("C")
	b := srv.addBatch(c.ID, "B")
	f1 := srv.addFolder(b.ID, "F1", nil)
	require.NoError(t, nav.SelectCourse(ctx, c))
	require.NoError(t, nav.SelectBatch(ctx, b))
	require.NoError(t, nav.OpenFolder(ctx, f1))

	assert.ErrorIs(t, New(backend, nil, zerolog.Nop()).Watch(ctx), ErrNoBatch)

	watchErr := make(chan error, 1)
	go func() { watchErr <- nav.Watch(ctx) }()

	srv.addFolder(b.ID, "F2", &f1)
	backend.events <- model.ContentEvent{Type: model.EventFoldersChanged, BatchID: b.ID}
	require.Eventually(t, func() bool { return len(nav.VisibleFolders()) == 1 }, 2*time.Second, 10*time.Millisecond)

	filesBefore := srv.count("GET /api/v1/folders/" + itoa(f1.ID) + "/files")
	backend.events <- model.ContentEvent{Type: model.EventFilesChanged, BatchID: b.ID, FolderID: f1.ID + 1000}
	backend.events <- model.ContentEvent{Type: model.EventFilesChanged, BatchID: b.ID, FolderID: f1.ID}
	require.Eventually(t, func() bool {
		return srv.count("GET /api/v1/folders/"+itoa(f1.ID)+"/files") == filesBefore+1
	}, 2*time.Second, 10*time.Millisecond)

	// Another batch's events are ignored.
	rosterBefore := srv.count("GET /api/v1/courses/" + itoa(c.ID) + "/batches/" + itoa(b.ID) + "/students")
	backend.events <- model.ContentEvent{Type: model.EventRosterChanged, BatchID: b.ID + 1000}
	backend.events <- model.ContentEvent{Type: model.EventRosterChanged, BatchID: b.ID}
	require.Eventually(t, func() bool {
		return srv.count("GET /api/v1/courses/"+itoa(c.ID)+"/batches/"+itoa(b.ID)+"/students") == rosterBefore+1
	}, 2*time.Second, 10*time.Millisecond)

	close(backend.events)
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after the stream closed")
	}
}

func TestWatchPrunesRemotelyDeletedFolders(t *testing.T) {
	srv := newFakeServer(t)
	backend := &pushBackend{Client: srv.start(), events: make(chan model.ContentEvent)}
	nav := New(backend, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := srv.addCourse("C")
	b := srv.addBatch(c.ID, "B")
	f1 := srv.addFolder(b.ID, "F1", nil)
	f2 := srv.addFolder(b.ID, "F2", &f1)
	require.NoError(t, nav.SelectCourse(ctx, c))
	require.NoError(t, nav.SelectBatch(ctx, b))
	require.NoError(t, nav.OpenFolder(ctx, f1))
	require.NoError(t, nav.OpenFolder(ctx, f2))
	_, err := nav.UploadFile(ctx, "notes.txt", strings.NewReader("hello"), 5, nil)
	require.NoError(t, err)
	require.Len(t, nav.Files(), 1)

	go func() { _ = nav.Watch(ctx) }()

	// Someone else removes the open folder; its parent becomes the open one.
	require.NoError(t, backend.Client.DeleteFolder(ctx, f2.ID))
	backend.events <- model.ContentEvent{Type: model.EventFoldersChanged, BatchID: b.ID}
	require.Eventually(t, func() bool { return len(nav.Path()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{f1.ID}, ids(nav.Path()))
	assert.Equal(t, FolderOpen, nav.State())
	assert.Empty(t, nav.Files())

	require.NoError(t, backend.Client.DeleteFolder(ctx, f1.ID))
	backend.events <- model.ContentEvent{Type: model.EventFoldersChanged, BatchID: b.ID}
	require.Eventually(t, func() bool { return nav.State() == BatchSelected }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, nav.Path())
	assert.Empty(t, nav.Folders())
	assert.Empty(t, nav.Files())
}

func TestFailedFolderReloadKeepsPath(t *testing.T) {
	srv, nav, _, f1, _ := openTree(t)
	ctx := context.Background()
	require.NoError(t, nav.OpenFolder(ctx, f1))

	srv.failNext["GET /api/v1/batches/"+itoa(f1.BatchID)+"/folders"] = "database down"
	assert.Error(t, nav.refreshFolders(ctx, f1.BatchID))
	assert.Empty(t, nav.Folders())
	assert.Equal(t, []int64{f1.ID}, ids(nav.Path()))
}
