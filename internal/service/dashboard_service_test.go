package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stemsi/courseware/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDashboard struct {
	countsErr error
	recent    []model.RecentUpload
	limit     int
}

func (s *stubDashboard) SummaryCounts(_ context.Context, d *model.DashboardSummary) error {
	if s.countsErr != nil {
		return s.countsErr
	}
	d.TotalCourses, d.TotalFiles, d.StorageBytes = 2, 3, 4096
	return nil
}

func (s *stubDashboard) RecentUploads(_ context.Context, limit int) ([]model.RecentUpload, error) {
	s.limit = limit
	return s.recent, nil
}

func TestDashboardData(t *testing.T) {
	repo := &stubDashboard{}
	data, err := NewDashboardService(repo).GetDashboardData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, data.TotalCourses)
	assert.Equal(t, int64(4096), data.StorageBytes)
	assert.NotNil(t, data.RecentUploads)
	assert.Equal(t, dashboardRecentUploads, repo.limit)
}

func TestDashboardDataError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewDashboardService(&stubDashboard{countsErr: boom}).GetDashboardData(context.Background())
	assert.ErrorIs(t, err, boom)
}
