package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/repository"
	"golang.org/x/sync/singleflight"
)

type FolderService interface {
	// ListByBatch returns the whole folder tree of a batch as a flat list.
	// Callers filter by parent.
	ListByBatch(ctx context.Context, batchID int64) ([]model.Folder, error)
	Create(ctx context.Context, req model.CreateFolderRequest) (*model.Folder, error)
	Rename(ctx context.Context, id int64, name string) (*model.Folder, error)
	Delete(ctx context.Context, id int64) error
}

type folderService struct {
	folderRepo repository.FolderRepository
	batchRepo  repository.BatchRepository
	cache      FolderCache
	events     EventPublisher
	purge      PurgeQueue
	loads      singleflight.Group
	log        zerolog.Logger
}

func NewFolderService(
	folderRepo repository.FolderRepository,
	batchRepo repository.BatchRepository,
	cache FolderCache,
	events EventPublisher,
	purge PurgeQueue,
	log zerolog.Logger,
) FolderService {
	return &folderService{
		folderRepo: folderRepo,
		batchRepo:  batchRepo,
		cache:      cache,
		events:     events,
		purge:      purge,
		log:        log.With().Str("component", "folder_service").Logger(),
	}
}

func (s *folderService) ListByBatch(ctx context.Context, batchID int64) ([]model.Folder, error) {
	if folders, ok, err := s.cache.Get(ctx, batchID); err != nil {
		s.log.Warn().Err(err).Int64("batch_id", batchID).Msg("Folder cache read failed")
	} else if ok {
		return folders, nil
	}

	// Concurrent misses for the same batch share one database round trip,
	// which must outlive the caller that happened to start it.
	v, err, _ := s.loads.Do(strconv.FormatInt(batchID, 10), func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		if _, err := s.batchRepo.GetByID(ctx, batchID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrBatchNotFound
			}
			return nil, err
		}
		folders, err := s.folderRepo.ListByBatch(ctx, batchID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, batchID, folders); err != nil {
			s.log.Warn().Err(err).Int64("batch_id", batchID).Msg("Folder cache write failed")
		}
		return folders, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Folder), nil
}

func (s *folderService) Create(ctx context.Context, req model.CreateFolderRequest) (*model.Folder, error) {
	folder := &model.Folder{
		BatchID: req.BatchID,
		Name:    strings.TrimSpace(req.Name),
	}

	if req.ParentID != nil {
		parent, err := s.folderRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		if parent.BatchID != req.BatchID {
			return nil, ErrParentMismatch
		}
		folder.Parent = &model.FolderRef{ID: parent.ID, Name: parent.Name}
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenceMissing):
			// The parent check passed, so the batch is what's missing,
			// unless the parent vanished in between.
			if folder.Parent != nil {
				if _, gerr := s.folderRepo.GetByID(ctx, folder.Parent.ID); errors.Is(gerr, repository.ErrNotFound) {
					return nil, ErrParentNotFound
				}
			}
			return nil, ErrBatchNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	s.changed(ctx, folder.BatchID)
	return folder, nil
}

func (s *folderService) Rename(ctx context.Context, id int64, name string) (*model.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == folder.Name {
		return folder, nil
	}

	if err := s.folderRepo.Rename(ctx, id, name); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrFolderNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	folder.Name = name

	s.changed(ctx, folder.BatchID)
	return folder, nil
}

// Delete removes the folder with all descendant folders and files.
func (s *folderService) Delete(ctx context.Context, id int64) error {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFolderNotFound
		}
		return err
	}

	keys, err := s.folderRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFolderNotFound
		}
		return err
	}

	if err := s.purge.Enqueue(ctx, keys...); err != nil {
		s.log.Error().Err(err).Int64("folder_id", id).Int("files", len(keys)).Msg("Enqueue purge failed")
	}
	s.changed(ctx, folder.BatchID)
	return nil
}

// changed drops the cached list and tells subscribers to refetch.
// Failures here never fail the write that already committed.
func (s *folderService) changed(ctx context.Context, batchID int64) {
	if err := s.cache.Invalidate(ctx, batchID); err != nil {
		s.log.Warn().Err(err).Int64("batch_id", batchID).Msg("Folder cache invalidation failed")
	}
	event := model.ContentEvent{Type: model.EventFoldersChanged, BatchID: batchID}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Int64("batch_id", batchID).Msg("Publish content event failed")
	}
}
