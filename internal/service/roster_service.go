package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/repository"
)

const defaultDirectoryLimit = 200

// RosterService manages batch membership and the student directory.
// Batches are always addressed through their course so a mismatched pair
// reads as not found.
type RosterService interface {
	List(ctx context.Context, courseID, batchID int64) ([]model.Student, error)
	Add(ctx context.Context, courseID, batchID int64, req model.AddMemberRequest) (*model.Student, error)
	// Remove accepts either an email or a numeric student id.
	Remove(ctx context.Context, courseID, batchID int64, member string) error

	SearchStudents(ctx context.Context, q string, limit int) ([]model.Student, error)
	CreateStudent(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error)
}

type rosterService struct {
	rosterRepo  repository.RosterRepository
	studentRepo repository.StudentRepository
	batchRepo   repository.BatchRepository
	events      EventPublisher
	log         zerolog.Logger
}

func NewRosterService(
	rosterRepo repository.RosterRepository,
	studentRepo repository.StudentRepository,
	batchRepo repository.BatchRepository,
	events EventPublisher,
	log zerolog.Logger,
) RosterService {
	return &rosterService{
		rosterRepo:  rosterRepo,
		studentRepo: studentRepo,
		batchRepo:   batchRepo,
		events:      events,
		log:         log.With().Str("component", "roster_service").Logger(),
	}
}

func (s *rosterService) List(ctx context.Context, courseID, batchID int64) ([]model.Student, error) {
	if err := s.checkBatch(ctx, courseID, batchID); err != nil {
		return nil, err
	}
	return s.rosterRepo.List(ctx, batchID)
}

func (s *rosterService) Add(ctx context.Context, courseID, batchID int64, req model.AddMemberRequest) (*model.Student, error) {
	if err := s.checkBatch(ctx, courseID, batchID); err != nil {
		return nil, err
	}

	var (
		student *model.Student
		err     error
	)
	switch {
	case req.Email != "":
		student, err = s.studentRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	case req.StudentID > 0:
		student, err = s.studentRepo.GetByID(ctx, req.StudentID)
	default:
		return nil, ErrStudentNotFound
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	if err := s.rosterRepo.Add(ctx, batchID, student.ID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return student, ErrAlreadyMember
		}
		return nil, err
	}

	s.changed(ctx, batchID)
	return student, nil
}

func (s *rosterService) Remove(ctx context.Context, courseID, batchID int64, member string) error {
	if err := s.checkBatch(ctx, courseID, batchID); err != nil {
		return err
	}

	student, err := s.resolveMember(ctx, member)
	if err != nil {
		return err
	}

	if err := s.rosterRepo.Remove(ctx, batchID, student.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotMember
		}
		return err
	}

	s.changed(ctx, batchID)
	return nil
}

func (s *rosterService) SearchStudents(ctx context.Context, q string, limit int) ([]model.Student, error) {
	if limit <= 0 {
		limit = defaultDirectoryLimit
	}
	return s.studentRepo.Search(ctx, q, limit)
}

func (s *rosterService) CreateStudent(ctx context.Context, req model.CreateStudentRequest) (*model.Student, error) {
	student := &model.Student{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrStudentExists
		}
		return nil, err
	}
	return student, nil
}

// resolveMember treats anything containing "@" as an email, otherwise an id.
func (s *rosterService) resolveMember(ctx context.Context, member string) (*model.Student, error) {
	member = strings.TrimSpace(member)

	var (
		student *model.Student
		err     error
	)
	if strings.Contains(member, "@") {
		student, err = s.studentRepo.GetByEmail(ctx, member)
	} else {
		id, perr := strconv.ParseInt(member, 10, 64)
		if perr != nil || id <= 0 {
			return nil, ErrStudentNotFound
		}
		student, err = s.studentRepo.GetByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (s *rosterService) checkBatch(ctx context.Context, courseID, batchID int64) error {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBatchNotFound
		}
		return err
	}
	if batch.CourseID != courseID {
		return ErrBatchNotFound
	}
	return nil
}

func (s *rosterService) changed(ctx context.Context, batchID int64) {
	event := model.ContentEvent{Type: model.EventRosterChanged, BatchID: batchID}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Int64("batch_id", batchID).Msg("Publish content event failed")
	}
}
