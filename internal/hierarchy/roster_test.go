package hierarchy

import (
	"context"
	"testing"

	"github.com/stemsi/courseware/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterIDs(students []model.Student) []int64 {
	out := make([]int64, len(students))
	for i, s := range students {
		out[i] = s.ID
	}
	return out
}

func TestAddStudents(t *testing.T) {
	srv, nav, _, _, _ := openTree(t)
	ctx := context.Background()
	budi := srv.addStudent("budi@example.com")
	sari := srv.addStudent("sari@example.com")
	require.NoError(t, nav.LoadStudents(ctx, ""))

	res, err := nav.AddStudents(ctx, []int64{budi.ID, sari.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, []int64{budi.ID, sari.ID}, rosterIDs(nav.Roster()))
}

func TestAddStudentsAlreadyCachedSendsNothing(t *testing.T) {
	srv, nav, notes, _, _ := openTree(t)
	ctx := context.Background()
	batch, _ := nav.Batch()
	budi := srv.addStudent("budi@example.com")
	srv.enroll(batch.ID, budi.ID)
	require.NoError(t, nav.Refresh(ctx))
	before := len(*notes)

	res, err := nav.AddStudents(ctx, []int64{budi.ID})
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, srv.totalMutations())
	assert.Len(t, *notes, before)
}

func TestAddStudentsServerDuplicateIsSkipped(t *testing.T) {
	srv, nav, notes, _, _ := openTree(t)
	ctx := context.Background()
	batch, _ := nav.Batch()
	budi := srv.addStudent("budi@example.com")
	require.NoError(t, nav.LoadStudents(ctx, "budi"))

	// Enrolled behind the navigator's back; the cached roster is stale.
	srv.enroll(batch.ID, budi.ID)

	res, err := nav.AddStudents(ctx, []int64{budi.ID})
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []int64{budi.ID}, rosterIDs(nav.Roster()))
	for _, n := range *notes {
		assert.NotEqual(t, LevelError, n.Level, n.Title)
	}
}

func TestAddStudentsUnknownIDFails(t *testing.T) {
	srv, nav, _, _, _ := openTree(t)
	ctx := context.Background()
	budi := srv.addStudent("budi@example.com")
	require.NoError(t, nav.LoadStudents(ctx, ""))

	res, err := nav.AddStudents(ctx, []int64{budi.ID, 9999})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStudent)
	assert.Equal(t, 1, res.Added)
	assert.Len(t, res.Failed, 1)
}

func TestAddStudentsValidation(t *testing.T) {
	srv, nav, _ := newTestNavigator(t)
	ctx := context.Background()

	_, err := nav.AddStudents(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = nav.AddStudents(ctx, []int64{1})
	assert.ErrorIs(t, err, ErrNoBatch)
	assert.Zero(t, srv.totalMutations())
}

func TestRemoveStudentUsesEmail(t *testing.T) {
	srv, nav, _, _, _ := openTree(t)
	ctx := context.Background()
	batch, _ := nav.Batch()
	budi := srv.addStudent("budi@example.com")
	srv.enroll(batch.ID, budi.ID)
	require.NoError(t, nav.Refresh(ctx))
	require.Len(t, nav.Roster(), 1)

	require.NoError(t, nav.RemoveStudent(ctx, budi.ID))
	assert.Empty(t, nav.Roster())
	assert.Equal(t, 1, srv.count("DELETE /api/v1/courses/"+itoa(batch.CourseID)+"/batches/"+itoa(batch.ID)+"/students/budi@example.com"))
}

func TestRemoveStudentNotEnrolled(t *testing.T) {
	srv, nav, notes, _, _ := openTree(t)
	budi := srv.addStudent("budi@example.com")

	require.Error(t, nav.RemoveStudent(context.Background(), budi.ID))
	assert.Equal(t, LevelError, (*notes)[len(*notes)-1].Level)
}

func TestDirectoryLearnsFromRoster(t *testing.T) {
	srv, nav, _, _, _ := openTree(t)
	batch, _ := nav.Batch()
	budi := srv.addStudent("Budi@Example.com")
	srv.enroll(batch.ID, budi.ID)
	require.NoError(t, nav.Refresh(context.Background()))

	email, ok := nav.Directory().Email(budi.ID)
	require.True(t, ok)
	assert.Equal(t, "Budi@Example.com", email)

	id, ok := nav.Directory().ID("budi@example.com")
	require.True(t, ok)
	assert.Equal(t, budi.ID, id)
}
