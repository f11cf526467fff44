package hierarchy

import (
	"context"

	"github.com/stemsi/courseware/internal/model"
)

// Watch follows the selected batch's event stream and refetches whatever
// list an event names. It returns when ctx is done or the stream ends.
// Events for a batch that is no longer selected are ignored.
func (n *Navigator) Watch(ctx context.Context) error {
	n.mu.Lock()
	if n.batch == nil {
		n.mu.Unlock()
		return ErrNoBatch
	}
	batchID := n.batch.ID
	n.mu.Unlock()

	events, err := n.api.SubscribeBatch(ctx, batchID)
	if err != nil {
		n.fail("Could not subscribe to changes", err)
		return err
	}
	n.log.Debug().Int64("batch_id", batchID).Msg("Watching batch")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			n.apply(ctx, ev)
		}
	}
}

func (n *Navigator) apply(ctx context.Context, ev model.ContentEvent) {
	n.mu.Lock()
	if n.batch == nil || n.batch.ID != ev.BatchID {
		n.mu.Unlock()
		return
	}
	courseID := n.batch.CourseID
	open, folderOpen := n.openLocked()
	n.mu.Unlock()

	switch ev.Type {
	case model.EventFoldersChanged:
		_ = n.refreshFolders(ctx, ev.BatchID)
	case model.EventFilesChanged:
		if folderOpen && open.ID == ev.FolderID {
			_ = n.refreshFiles(ctx, ev.FolderID)
		}
	case model.EventRosterChanged:
		_ = n.refreshRoster(ctx, courseID, ev.BatchID)
	}
}
