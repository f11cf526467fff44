package service

import (
	"context"

	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/repository"
)

const dashboardRecentUploads = 5

// DashboardService assembles the staff dashboard.
type DashboardService struct {
	repo repository.DashboardRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetDashboardData returns totals and the latest uploads.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*model.DashboardSummary, error) {
	data := &model.DashboardSummary{}
	if err := s.repo.SummaryCounts(ctx, data); err != nil {
		return nil, err
	}

	recent, err := s.repo.RecentUploads(ctx, dashboardRecentUploads)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []model.RecentUpload{}
	}
	data.RecentUploads = recent

	return data, nil
}
