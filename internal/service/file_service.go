package service

import (
	"context"
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/repository"
)

// BlobStore is the part of StorageService that FileService needs.
type BlobStore interface {
	Save(file multipart.File, header *multipart.FileHeader) (*StoredObject, error)
	Remove(key string) error
}

type FileService interface {
	ListByFolder(ctx context.Context, folderID int64) ([]model.File, error)
	Upload(ctx context.Context, folderID int64, file multipart.File, header *multipart.FileHeader) (*model.File, error)
}

type fileService struct {
	fileRepo   repository.FileRepository
	folderRepo repository.FolderRepository
	store      BlobStore
	events     EventPublisher
	log        zerolog.Logger
}

func NewFileService(
	fileRepo repository.FileRepository,
	folderRepo repository.FolderRepository,
	store BlobStore,
	events EventPublisher,
	log zerolog.Logger,
) FileService {
	return &fileService{
		fileRepo:   fileRepo,
		folderRepo: folderRepo,
		store:      store,
		events:     events,
		log:        log.With().Str("component", "file_service").Logger(),
	}
}

func (s *fileService) ListByFolder(ctx context.Context, folderID int64) ([]model.File, error) {
	if _, err := s.folderRepo.GetByID(ctx, folderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}
	return s.fileRepo.ListByFolder(ctx, folderID)
}

func (s *fileService) Upload(ctx context.Context, folderID int64, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}

	obj, err := s.store.Save(file, header)
	if err != nil {
		return nil, err
	}

	rec := &model.File{
		FolderID:    folderID,
		Name:        displayName(header.Filename),
		StorageKey:  obj.Key,
		URL:         obj.URL,
		ContentType: obj.ContentType,
		SizeBytes:   obj.Size,
	}
	if err := s.fileRepo.Create(ctx, rec); err != nil {
		if rmErr := s.store.Remove(obj.Key); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("key", obj.Key).Msg("Remove orphaned upload failed")
		}
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, ErrFolderNotFound
		}
		return nil, err
	}

	event := model.ContentEvent{Type: model.EventFilesChanged, BatchID: folder.BatchID, FolderID: folderID}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Int64("folder_id", folderID).Msg("Publish content event failed")
	}
	return rec, nil
}

// displayName strips any client-side directory from an uploaded filename.
func displayName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "untitled"
	}
	return name
}
