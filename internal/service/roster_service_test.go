package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRosterFixture() (*memStore, *recordingEvents, RosterService) {
	store := newMemStore()
	events := &recordingEvents{}
	svc := NewRosterService(memRoster{store}, memStudents{store}, memBatches{store}, events, zerolog.Nop())
	return store, events, svc
}

func TestRosterAddByEmailAndID(t *testing.T) {
	store, events, svc := newRosterFixture()
	ctx := context.Background()
	batch := store.seedBatch(1, "A")
	ana := store.seedStudent("ana@example.com")
	budi := store.seedStudent("budi@example.com")

	got, err := svc.Add(ctx, 1, batch.ID, model.AddMemberRequest{Email: "ANA@example.com"})
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)

	got, err = svc.Add(ctx, 1, batch.ID, model.AddMemberRequest{StudentID: budi.ID})
	require.NoError(t, err)
	assert.Equal(t, budi.ID, got.ID)

	members, err := svc.List(ctx, 1, batch.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
	assert.Equal(t, model.EventRosterChanged, events.last().Type)
}

func TestRosterAddTwiceIsAlreadyMember(t *testing.T) {
	store, events, svc := newRosterFixture()
	ctx := context.Background()
	batch := store.seedBatch(1, "A")
	store.seedStudent("ana@example.com")

	_, err := svc.Add(ctx, 1, batch.ID, model.AddMemberRequest{Email: "ana@example.com"})
	require.NoError(t, err)
	published := len(events.events)

	student, err := svc.Add(ctx, 1, batch.ID, model.AddMemberRequest{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyMember)
	require.NotNil(t, student)
	assert.Equal(t, "ana@example.com", student.Email)
	assert.Len(t, events.events, published)

	members, err := svc.List(ctx, 1, batch.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestRosterAddUnknownStudent(t *testing.T) {
	store, _, svc := newRosterFixture()
	batch := store.seedBatch(1, "A")

	_, err := svc.Add(context.Background(), 1, batch.ID, model.AddMemberRequest{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestRosterBatchMustBelongToCourse(t *testing.T) {
	store, _, svc := newRosterFixture()
	batch := store.seedBatch(1, "A")

	_, err := svc.List(context.Background(), 2, batch.ID)
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestRosterRemoveByEmailOrID(t *testing.T) {
	store, _, svc := newRosterFixture()
	ctx := context.Background()
	batch := store.seedBatch(1, "A")
	ana := store.seedStudent("ana@example.com")
	budi := store.seedStudent("budi@example.com")

	for _, s := range []*model.Student{ana, budi} {
		_, err := svc.Add(ctx, 1, batch.ID, model.AddMemberRequest{StudentID: s.ID})
		require.NoError(t, err)
	}

	require.NoError(t, svc.Remove(ctx, 1, batch.ID, "ana@example.com"))
	require.NoError(t, svc.Remove(ctx, 1, batch.ID, strconv.FormatInt(budi.ID, 10)))

	assert.ErrorIs(t, svc.Remove(ctx, 1, batch.ID, "ana@example.com"), ErrNotMember)
	assert.ErrorIs(t, svc.Remove(ctx, 1, batch.ID, "not-an-id"), ErrStudentNotFound)

	members, err := svc.List(ctx, 1, batch.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestCreateStudentNormalizesEmail(t *testing.T) {
	_, _, svc := newRosterFixture()
	ctx := context.Background()

	st, err := svc.CreateStudent(ctx, model.CreateStudentRequest{FirstName: " Ana ", Email: " Ana@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", st.Email)
	assert.Equal(t, "Ana", st.DisplayName())

	_, err = svc.CreateStudent(ctx, model.CreateStudentRequest{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrStudentExists)
}

func TestSearchStudentsDefaultLimit(t *testing.T) {
	store, _, svc := newRosterFixture()
	store.seedStudent("ana@example.com")
	store.seedStudent("budi@example.com")

	all, err := svc.SearchStudents(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := svc.SearchStudents(context.Background(), "budi", 0)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "budi@example.com", one[0].Email)
}
