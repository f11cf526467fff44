package service

import (
	"context"

	"github.com/stemsi/courseware/internal/model"
)

// EventPublisher fans content changes out to subscribed clients.
type EventPublisher interface {
	Publish(ctx context.Context, event model.ContentEvent) error
}

// PurgeQueue schedules removal of stored blobs once their rows are gone.
type PurgeQueue interface {
	Enqueue(ctx context.Context, storageKeys ...string) error
}

// FolderCache holds the full folder list of a batch. Get reports ok=false on a miss.
type FolderCache interface {
	Get(ctx context.Context, batchID int64) (folders []model.Folder, ok bool, err error)
	Set(ctx context.Context, batchID int64, folders []model.Folder) error
	Invalidate(ctx context.Context, batchIDs ...int64) error
}
