package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/repository"
)

// ErrInvalidRole is returned when a role is neither admin nor tutor.
var ErrInvalidRole = errors.New("invalid role")

// AdminService handles staff account logic.
type AdminService struct {
	adminRepo *repository.AdminRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(adminRepo *repository.AdminRepository) *AdminService {
	return &AdminService{adminRepo: adminRepo}
}

// GetByEmail retrieves an admin by email.
func (s *AdminService) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return s.adminRepo.GetByEmail(ctx, strings.TrimSpace(email))
}

// GetByID retrieves an admin by ID.
func (s *AdminService) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	return s.adminRepo.GetByID(ctx, id)
}

// Upsert creates the account, or resets password and role when the email
// is already registered. Returns true when a new account was created.
func (s *AdminService) Upsert(ctx context.Context, admin *model.Admin) (bool, error) {
	if !admin.Role.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidRole, admin.Role)
	}

	existing, err := s.adminRepo.GetByEmail(ctx, admin.Email)
	switch {
	case err == nil:
		admin.ID = existing.ID
		return false, s.adminRepo.UpdateCredentials(ctx, admin)
	case errors.Is(err, repository.ErrNotFound):
		return true, s.adminRepo.Create(ctx, admin)
	default:
		return false, err
	}
}
