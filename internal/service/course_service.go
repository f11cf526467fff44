package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/repository"
)

type CourseService interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	CreateCourse(ctx context.Context, req model.CourseRequest) (*model.Course, error)
	UpdateCourse(ctx context.Context, id int64, req model.CourseRequest) (*model.Course, error)
	DeleteCourse(ctx context.Context, id int64) error

	ListBatches(ctx context.Context, courseID int64) ([]model.Batch, error)
	CreateBatch(ctx context.Context, courseID int64, req model.CreateBatchRequest) (*model.Batch, error)
}

type courseService struct {
	courseRepo repository.CourseRepository
	batchRepo  repository.BatchRepository
	cache      FolderCache
	purge      PurgeQueue
	log        zerolog.Logger
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	batchRepo repository.BatchRepository,
	cache FolderCache,
	purge PurgeQueue,
	log zerolog.Logger,
) CourseService {
	return &courseService{
		courseRepo: courseRepo,
		batchRepo:  batchRepo,
		cache:      cache,
		purge:      purge,
		log:        log.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.courseRepo.List(ctx)
}

func (s *courseService) CreateCourse(ctx context.Context, req model.CourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, id int64, req model.CourseRequest) (*model.Course, error) {
	course := &model.Course{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.courseRepo.Update(ctx, course); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// DeleteCourse removes the course and everything beneath it. Stored files
// are purged asynchronously.
func (s *courseService) DeleteCourse(ctx context.Context, id int64) error {
	batches, err := s.batchRepo.ListByCourse(ctx, id)
	if err != nil {
		return err
	}

	keys, err := s.courseRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	batchIDs := make([]int64, len(batches))
	for i, b := range batches {
		batchIDs[i] = b.ID
	}
	if err := s.cache.Invalidate(ctx, batchIDs...); err != nil {
		s.log.Warn().Err(err).Int64("course_id", id).Msg("Folder cache invalidation failed")
	}
	if err := s.purge.Enqueue(ctx, keys...); err != nil {
		s.log.Error().Err(err).Int64("course_id", id).Int("files", len(keys)).Msg("Enqueue purge failed")
	}
	return nil
}

func (s *courseService) ListBatches(ctx context.Context, courseID int64) ([]model.Batch, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return s.batchRepo.ListByCourse(ctx, courseID)
}

func (s *courseService) CreateBatch(ctx context.Context, courseID int64, req model.CreateBatchRequest) (*model.Batch, error) {
	batch := &model.Batch{CourseID: courseID, Name: strings.TrimSpace(req.Name)}
	if err := s.batchRepo.Create(ctx, batch); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenceMissing):
			return nil, ErrCourseNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return batch, nil
}
