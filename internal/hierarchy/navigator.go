// Package hierarchy keeps the client-side view of Course → Batch → Folder →
// File: what is selected, the breadcrumb path, and the cached lists at each
// level. All writes go to the server and are followed by a refetch; lists
// are never patched locally.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/courseware/internal/client"
	"github.com/stemsi/courseware/internal/model"
)

// Backend is the subset of the REST client the navigator needs.
type Backend interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	CreateCourse(ctx context.Context, req model.CourseRequest) (*model.Course, error)
	UpdateCourse(ctx context.Context, courseID int64, req model.CourseRequest) (*model.Course, error)
	DeleteCourse(ctx context.Context, courseID int64) error

	ListBatches(ctx context.Context, courseID int64) ([]model.Batch, error)
	CreateBatch(ctx context.Context, courseID int64, req model.CreateBatchRequest) (*model.Batch, error)

	ListFolders(ctx context.Context, batchID int64) ([]model.Folder, error)
	CreateFolder(ctx context.Context, req model.CreateFolderRequest) (*model.Folder, error)
	RenameFolder(ctx context.Context, folderID int64, name string) error
	DeleteFolder(ctx context.Context, folderID int64) error

	ListFiles(ctx context.Context, folderID int64) ([]model.File, error)
	UploadFile(ctx context.Context, folderID int64, name string, r io.Reader, size int64, progress client.ProgressFunc) (*model.File, error)

	ListMembers(ctx context.Context, courseID, batchID int64) ([]model.Student, error)
	AddMember(ctx context.Context, courseID, batchID int64, email string) (*model.Student, error)
	RemoveMember(ctx context.Context, courseID, batchID int64, member string) error
	ListStudents(ctx context.Context, q string) ([]model.Student, error)

	SubscribeBatch(ctx context.Context, batchID int64) (<-chan model.ContentEvent, error)
}

// kind identifies one cached list for the generation guard.
type kind int

const (
	kindCourses kind = iota
	kindBatches
	kindFolders
	kindFiles
	kindRoster
	kindStudents
	kindCount
)

// Navigator is safe for concurrent use. The mutex guards state only; no
// network call is made while holding it.
type Navigator struct {
	api      Backend
	dir      *client.Directory
	notifier Notifier
	log      zerolog.Logger

	mu  sync.Mutex
	gen [kindCount]uint64

	course *model.Course
	batch  *model.Batch
	path   []model.Folder

	courses  []model.Course
	batches  []model.Batch
	folders  []model.Folder
	files    []model.File
	roster   []model.Student
	students []model.Student
}

// New creates a navigator in the NoCourse state. A nil notifier logs.
func New(api Backend, notifier Notifier, log zerolog.Logger) *Navigator {
	log = log.With().Str("component", "navigator").Logger()
	if notifier == nil {
		notifier = NewLogNotifier(log)
	}
	return &Navigator{
		api:      api,
		dir:      client.NewDirectory(),
		notifier: notifier,
		log:      log,
		courses:  []model.Course{},
		batches:  []model.Batch{},
		folders:  []model.Folder{},
		files:    []model.File{},
		roster:   []model.Student{},
		students: []model.Student{},
	}
}

// Directory exposes the id ↔ email map built from every student list seen.
func (n *Navigator) Directory() *client.Directory { return n.dir }

// ─── Generation guard ───────────────────────────────────────────────

// begin takes a token for a new load of k. Any later begin or bump makes
// the token stale.
func (n *Navigator) begin(k kind) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen[k]++
	return n.gen[k]
}

// bump invalidates in-flight loads. Caller holds n.mu.
func (n *Navigator) bump(kinds ...kind) {
	for _, k := range kinds {
		n.gen[k]++
	}
}

// fetch runs one guarded load. commit runs under the lock, and only if the
// token is still current. Errors leave an empty list behind.
func fetch[T any](ctx context.Context, n *Navigator, k kind, what string, load func(context.Context) ([]T, error), commit func([]T)) error {
	token := n.begin(k)
	items, err := load(ctx)
	if err != nil || items == nil {
		items = []T{}
	}

	n.mu.Lock()
	if n.gen[k] != token {
		n.mu.Unlock()
		n.log.Debug().Str("list", what).Msg("Dropped stale result")
		return nil
	}
	commit(items)
	n.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			n.fail("Could not load "+what, err)
		}
		return err
	}
	return nil
}

// ─── Loads ──────────────────────────────────────────────────────────

// RefreshCourses reloads the course picker.
func (n *Navigator) RefreshCourses(ctx context.Context) error {
	return fetch(ctx, n, kindCourses, "courses", n.api.ListCourses, func(items []model.Course) {
		n.courses = items
	})
}

func (n *Navigator) refreshBatches(ctx context.Context, courseID int64) error {
	return fetch(ctx, n, kindBatches, "batches",
		func(ctx context.Context) ([]model.Batch, error) { return n.api.ListBatches(ctx, courseID) },
		func(items []model.Batch) {
			if n.course != nil && n.course.ID == courseID {
				n.batches = items
			}
		})
}

func (n *Navigator) refreshFolders(ctx context.Context, batchID int64) error {
	loaded, pruned := false, false
	err := fetch(ctx, n, kindFolders, "folders",
		func(ctx context.Context) ([]model.Folder, error) {
			folders, err := n.api.ListFolders(ctx, batchID)
			loaded = err == nil
			return folders, err
		},
		func(items []model.Folder) {
			if n.batch != nil && n.batch.ID == batchID {
				n.folders = items
				if loaded {
					pruned = n.prunePathLocked()
				}
				n.syncPathLocked()
			}
		})
	if !pruned {
		return err
	}

	n.mu.Lock()
	open, ok := n.openLocked()
	n.mu.Unlock()
	if !ok {
		return err
	}
	return errors.Join(err, n.refreshFiles(ctx, open.ID))
}

func (n *Navigator) refreshFiles(ctx context.Context, folderID int64) error {
	return fetch(ctx, n, kindFiles, "files",
		func(ctx context.Context) ([]model.File, error) { return n.api.ListFiles(ctx, folderID) },
		func(items []model.File) {
			if open, ok := n.openLocked(); ok && open.ID == folderID {
				n.files = items
			}
		})
}

func (n *Navigator) refreshRoster(ctx context.Context, courseID, batchID int64) error {
	return fetch(ctx, n, kindRoster, "roster",
		func(ctx context.Context) ([]model.Student, error) { return n.api.ListMembers(ctx, courseID, batchID) },
		func(items []model.Student) {
			n.dir.Put(items...)
			if n.batch != nil && n.batch.ID == batchID {
				n.roster = items
			}
		})
}

// LoadStudents searches the student directory and remembers every result
// for id ↔ email translation.
func (n *Navigator) LoadStudents(ctx context.Context, q string) error {
	return fetch(ctx, n, kindStudents, "students",
		func(ctx context.Context) ([]model.Student, error) { return n.api.ListStudents(ctx, q) },
		func(items []model.Student) {
			n.dir.Put(items...)
			n.students = items
		})
}

// Refresh reloads every list the current state shows.
func (n *Navigator) Refresh(ctx context.Context) error {
	n.mu.Lock()
	course, batch := n.course, n.batch
	open, folderOpen := n.openLocked()
	n.mu.Unlock()

	errs := []error{n.RefreshCourses(ctx)}
	if course != nil {
		errs = append(errs, n.refreshBatches(ctx, course.ID))
	}
	if batch != nil {
		errs = append(errs,
			n.refreshFolders(ctx, batch.ID),
			n.refreshRoster(ctx, batch.CourseID, batch.ID),
		)
	}
	if folderOpen {
		errs = append(errs, n.refreshFiles(ctx, open.ID))
	}
	return errors.Join(errs...)
}

// ─── Transitions ────────────────────────────────────────────────────

// SelectCourse moves to CourseSelected from any state and loads its batches.
func (n *Navigator) SelectCourse(ctx context.Context, course model.Course) error {
	n.mu.Lock()
	n.course = &course
	n.clearBatchLocked()
	n.batches = []model.Batch{}
	n.bump(kindBatches)
	n.mu.Unlock()

	return n.refreshBatches(ctx, course.ID)
}

// SelectBatch moves to BatchSelected and loads the batch's folders and roster.
func (n *Navigator) SelectBatch(ctx context.Context, batch model.Batch) error {
	n.mu.Lock()
	if n.course == nil {
		n.mu.Unlock()
		return ErrNoCourse
	}
	if batch.CourseID != n.course.ID {
		n.mu.Unlock()
		return fmt.Errorf("%w: batch %d, course %d", ErrBatchMismatch, batch.ID, n.course.ID)
	}
	n.clearBatchLocked()
	n.batch = &batch
	n.mu.Unlock()

	return errors.Join(
		n.refreshFolders(ctx, batch.ID),
		n.refreshRoster(ctx, batch.CourseID, batch.ID),
	)
}

// OpenFolder moves to FolderOpen, updates the path by truncate-or-append and
// loads the batch's folders and the folder's files.
func (n *Navigator) OpenFolder(ctx context.Context, folder model.Folder) error {
	n.mu.Lock()
	if n.batch == nil {
		n.mu.Unlock()
		return ErrNoBatch
	}
	if folder.BatchID != n.batch.ID {
		n.mu.Unlock()
		return fmt.Errorf("%w: folder %d, batch %d", ErrFolderMismatch, folder.ID, n.batch.ID)
	}
	n.path = updatePath(n.path, folder, n.folders)
	n.files = []model.File{}
	n.bump(kindFiles)
	batchID := n.batch.ID
	n.mu.Unlock()

	return errors.Join(
		n.refreshFolders(ctx, batchID),
		n.refreshFiles(ctx, folder.ID),
	)
}

// NavigateTo follows a breadcrumb. folder is only used with TargetFolder.
func (n *Navigator) NavigateTo(ctx context.Context, target Target, folder *model.Folder) error {
	switch target {
	case TargetHome:
		n.mu.Lock()
		n.resetLocked()
		n.mu.Unlock()
		return n.RefreshCourses(ctx)

	case TargetCourse:
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.course == nil {
			return ErrNoCourse
		}
		n.clearBatchLocked()
		return nil

	case TargetBatch:
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.batch == nil {
			return ErrNoBatch
		}
		n.path = nil
		n.files = []model.File{}
		n.bump(kindFiles)
		return nil

	case TargetFolder:
		if folder == nil {
			return ErrNoFolder
		}
		return n.OpenFolder(ctx, *folder)
	}
	return fmt.Errorf("unknown navigation target %d", target)
}

// resetLocked returns to NoCourse.
func (n *Navigator) resetLocked() {
	n.course = nil
	n.clearBatchLocked()
	n.batches = []model.Batch{}
	n.bump(kindBatches)
}

// clearBatchLocked drops the batch and everything below it.
func (n *Navigator) clearBatchLocked() {
	n.batch = nil
	n.path = nil
	n.folders = []model.Folder{}
	n.files = []model.File{}
	n.roster = []model.Student{}
	n.bump(kindFolders, kindFiles, kindRoster)
}

// prunePathLocked cuts the path at the first folder missing from the
// folder list. Files are dropped when the open folder was removed.
func (n *Navigator) prunePathLocked() bool {
	if len(n.path) == 0 {
		return false
	}
	present := make(map[int64]struct{}, len(n.folders))
	for _, f := range n.folders {
		present[f.ID] = struct{}{}
	}
	for i, p := range n.path {
		if _, ok := present[p.ID]; ok {
			continue
		}
		n.path = n.path[:i:i]
		n.files = []model.File{}
		n.bump(kindFiles)
		n.log.Debug().Int64("folder_id", p.ID).Msg("Open folder no longer exists")
		return true
	}
	return false
}

// syncPathLocked refreshes path entries from the folder list so renamed
// folders show their new names.
func (n *Navigator) syncPathLocked() {
	if len(n.path) == 0 {
		return
	}
	byID := make(map[int64]model.Folder, len(n.folders))
	for _, f := range n.folders {
		byID[f.ID] = f
	}
	for i, p := range n.path {
		if fresh, ok := byID[p.ID]; ok {
			n.path[i] = fresh
		}
	}
}

func (n *Navigator) openLocked() (model.Folder, bool) {
	if len(n.path) == 0 {
		return model.Folder{}, false
	}
	return n.path[len(n.path)-1], true
}

// ─── Getters ────────────────────────────────────────────────────────

func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case n.course == nil:
		return NoCourse
	case n.batch == nil:
		return CourseSelected
	case len(n.path) == 0:
		return BatchSelected
	}
	return FolderOpen
}

func (n *Navigator) Course() (model.Course, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.course == nil {
		return model.Course{}, false
	}
	return *n.course, true
}

func (n *Navigator) Batch() (model.Batch, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.batch == nil {
		return model.Batch{}, false
	}
	return *n.batch, true
}

// CurrentFolder is the last path entry.
func (n *Navigator) CurrentFolder() (model.Folder, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.openLocked()
}

// Path returns the breadcrumb from the batch root to the open folder.
func (n *Navigator) Path() []model.Folder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Folder{}, n.path...)
}

func (n *Navigator) Courses() []model.Course {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Course{}, n.courses...)
}

func (n *Navigator) Batches() []model.Batch {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Batch{}, n.batches...)
}

// Folders returns the full folder list of the batch, at all depths.
func (n *Navigator) Folders() []model.Folder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Folder{}, n.folders...)
}

// VisibleFolders returns the children of the open folder, or the root
// folders when none is open. It scans the whole batch list on every call.
func (n *Navigator) VisibleFolders() []model.Folder {
	n.mu.Lock()
	defer n.mu.Unlock()
	var parentID int64
	if open, ok := n.openLocked(); ok {
		parentID = open.ID
	}
	return childrenOf(n.folders, parentID)
}

func (n *Navigator) Files() []model.File {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.File{}, n.files...)
}

func (n *Navigator) Roster() []model.Student {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Student{}, n.roster...)
}

func (n *Navigator) Students() []model.Student {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Student{}, n.students...)
}

// ─── Notifications ──────────────────────────────────────────────────

func (n *Navigator) notify(level Level, title, detail string) {
	n.notifier.Notify(Notification{Level: level, Title: title, Detail: detail})
}

func (n *Navigator) fail(title string, err error) {
	n.notify(LevelError, title, client.Message(err))
}
