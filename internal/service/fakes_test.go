package service

import (
	"context"
	"strings"
	"sync"

	"github.com/stemsi/courseware/internal/model"
	"github.com/stemsi/courseware/internal/repository"
)

// memStore is an in-memory stand-in for the Postgres repositories.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	courses  map[int64]*model.Course
	batches  map[int64]*model.Batch
	folders  map[int64]*model.Folder
	files    map[int64]*model.File
	students map[int64]*model.Student
	roster   map[int64]map[int64]bool

	folderLists int
}

func newMemStore() *memStore {
	return &memStore{
		courses:  map[int64]*model.Course{},
		batches:  map[int64]*model.Batch{},
		folders:  map[int64]*model.Folder{},
		files:    map[int64]*model.File{},
		students: map[int64]*model.Student{},
		roster:   map[int64]map[int64]bool{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) seedBatch(courseID int64, name string) *model.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courses[courseID]; !ok {
		m.courses[courseID] = &model.Course{ID: courseID, Title: "Course"}
	}
	b := &model.Batch{ID: m.id(), CourseID: courseID, Name: name}
	m.batches[b.ID] = b
	return b
}

func (m *memStore) seedStudent(email string) *model.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &model.Student{ID: m.id(), Email: email}
	m.students[s.ID] = s
	return s
}

// ─── Courses ────────────────────────────────────────────────────────

type memCourses struct{ *memStore }

func (r memCourses) List(context.Context) ([]model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, *c)
	}
	return out, nil
}

func (r memCourses) GetByID(_ context.Context, id int64) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memCourses) Create(_ context.Context, c *model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r memCourses) Update(_ context.Context, c *model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r memCourses) Delete(_ context.Context, id int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.courses, id)
	var keys []string
	for bid, b := range r.batches {
		if b.CourseID != id {
			continue
		}
		for fid, f := range r.folders {
			if f.BatchID == bid {
				keys = append(keys, r.dropFilesLocked(fid)...)
				delete(r.folders, fid)
			}
		}
		delete(r.batches, bid)
	}
	return keys, nil
}

// ─── Batches ────────────────────────────────────────────────────────

type memBatches struct{ *memStore }

func (r memBatches) ListByCourse(_ context.Context, courseID int64) ([]model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Batch, 0)
	for _, b := range r.batches {
		if b.CourseID == courseID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r memBatches) GetByID(_ context.Context, id int64) (*model.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r memBatches) Create(_ context.Context, b *model.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[b.CourseID]; !ok {
		return repository.ErrReferenceMissing
	}
	for _, other := range r.batches {
		if other.CourseID == b.CourseID && strings.EqualFold(other.Name, b.Name) {
			return repository.ErrDuplicate
		}
	}
	b.ID = r.id()
	cp := *b
	r.batches[b.ID] = &cp
	return nil
}

// ─── Folders ────────────────────────────────────────────────────────

type memFolders struct{ *memStore }

func (r memFolders) ListByBatch(_ context.Context, batchID int64) ([]model.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folderLists++
	out := make([]model.Folder, 0)
	for _, f := range r.folders {
		if f.BatchID == batchID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r memFolders) GetByID(_ context.Context, id int64) (*model.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r memFolders) Create(_ context.Context, f *model.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[f.BatchID]; !ok {
		return repository.ErrReferenceMissing
	}
	for _, other := range r.folders {
		if other.BatchID == f.BatchID && other.ParentID() == f.ParentID() && strings.EqualFold(other.Name, f.Name) {
			return repository.ErrDuplicate
		}
	}
	f.ID = r.id()
	cp := *f
	r.folders[f.ID] = &cp
	return nil
}

func (r memFolders) Rename(_ context.Context, id int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.Name = name
	return nil
}

func (r memFolders) Delete(_ context.Context, id int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[id]; !ok {
		return nil, repository.ErrNotFound
	}
	var keys []string
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for fid, f := range r.folders {
			if f.ParentID() == cur {
				queue = append(queue, fid)
			}
		}
		keys = append(keys, r.dropFilesLocked(cur)...)
		delete(r.folders, cur)
	}
	return keys, nil
}

func (m *memStore) dropFilesLocked(folderID int64) []string {
	var keys []string
	for id, f := range m.files {
		if f.FolderID == folderID {
			keys = append(keys, f.StorageKey)
			delete(m.files, id)
		}
	}
	return keys
}

// ─── Files ──────────────────────────────────────────────────────────

type memFiles struct {
	*memStore
	createErr error
}

func (r memFiles) ListByFolder(_ context.Context, folderID int64) ([]model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.File, 0)
	for _, f := range r.files {
		if f.FolderID == folderID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r memFiles) Create(_ context.Context, f *model.File) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = r.id()
	cp := *f
	r.files[f.ID] = &cp
	return nil
}

// ─── Students & Roster ──────────────────────────────────────────────

type memStudents struct{ *memStore }

func (r memStudents) Search(_ context.Context, q string, limit int) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Student, 0)
	for _, s := range r.students {
		if q == "" || strings.Contains(strings.ToLower(s.Email), strings.ToLower(q)) {
			out = append(out, *s)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r memStudents) GetByID(_ context.Context, id int64) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r memStudents) GetByEmail(_ context.Context, email string) (*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if strings.EqualFold(s.Email, email) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memStudents) Create(_ context.Context, s *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.students {
		if strings.EqualFold(other.Email, s.Email) {
			return repository.ErrDuplicate
		}
	}
	s.ID = r.id()
	cp := *s
	r.students[s.ID] = &cp
	return nil
}

type memRoster struct{ *memStore }

func (r memRoster) List(_ context.Context, batchID int64) ([]model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Student, 0)
	for sid := range r.roster[batchID] {
		out = append(out, *r.students[sid])
	}
	return out, nil
}

func (r memRoster) Add(_ context.Context, batchID, studentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.roster[batchID] == nil {
		r.roster[batchID] = map[int64]bool{}
	}
	if r.roster[batchID][studentID] {
		return repository.ErrDuplicate
	}
	r.roster[batchID][studentID] = true
	return nil
}

func (r memRoster) Remove(_ context.Context, batchID, studentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.roster[batchID][studentID] {
		return repository.ErrNotFound
	}
	delete(r.roster[batchID], studentID)
	return nil
}

// ─── Hooks ──────────────────────────────────────────────────────────

type recordingEvents struct {
	mu     sync.Mutex
	events []model.ContentEvent
}

func (e *recordingEvents) Publish(_ context.Context, ev model.ContentEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return nil
}

func (e *recordingEvents) last() model.ContentEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.events) == 0 {
		return model.ContentEvent{}
	}
	return e.events[len(e.events)-1]
}

type recordingPurge struct {
	keys []string
}

func (p *recordingPurge) Enqueue(_ context.Context, keys ...string) error {
	p.keys = append(p.keys, keys...)
	return nil
}

type memCache struct {
	mu          sync.Mutex
	lists       map[int64][]model.Folder
	invalidated []int64
}

func newMemCache() *memCache {
	return &memCache{lists: map[int64][]model.Folder{}}
}

func (c *memCache) Get(_ context.Context, batchID int64) ([]model.Folder, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.lists[batchID]
	return f, ok, nil
}

func (c *memCache) Set(_ context.Context, batchID int64, folders []model.Folder) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[batchID] = folders
	return nil
}

func (c *memCache) Invalidate(_ context.Context, batchIDs ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range batchIDs {
		delete(c.lists, id)
	}
	c.invalidated = append(c.invalidated, batchIDs...)
	return nil
}
