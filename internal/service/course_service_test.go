package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseLifecycle(t *testing.T) {
	store := newMemStore()
	cache := newMemCache()
	purge := &recordingPurge{}
	svc := NewCourseService(memCourses{store}, memBatches{store}, cache, purge, zerolog.Nop())
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, model.CourseRequest{Title: " Physics ", Description: "Mechanics"})
	require.NoError(t, err)
	assert.Equal(t, "Physics", course.Title)

	batch, err := svc.CreateBatch(ctx, course.ID, model.CreateBatchRequest{Name: "2026 A"})
	require.NoError(t, err)
	assert.Equal(t, course.ID, batch.CourseID)

	_, err = svc.CreateBatch(ctx, course.ID, model.CreateBatchRequest{Name: "2026 a"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = svc.CreateBatch(ctx, 9999, model.CreateBatchRequest{Name: "X"})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	batches, err := svc.ListBatches(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, batches, 1)

	updated, err := svc.UpdateCourse(ctx, course.ID, model.CourseRequest{Title: "Physics I"})
	require.NoError(t, err)
	assert.Equal(t, "Physics I", updated.Title)

	folder := &model.Folder{BatchID: batch.ID, Name: "Week 1"}
	require.NoError(t, memFolders{store}.Create(ctx, folder))
	require.NoError(t, memFiles{memStore: store}.Create(ctx, &model.File{FolderID: folder.ID, StorageKey: "k.pdf"}))

	require.NoError(t, svc.DeleteCourse(ctx, course.ID))
	assert.Equal(t, []string{"k.pdf"}, purge.keys)
	assert.Contains(t, cache.invalidated, batch.ID)

	_, err = svc.ListBatches(ctx, course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	assert.ErrorIs(t, svc.DeleteCourse(ctx, course.ID), ErrCourseNotFound)
	_, err = svc.UpdateCourse(ctx, course.ID, model.CourseRequest{Title: "X"})
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
