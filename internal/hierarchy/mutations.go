package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stemsi/courseware/internal/client"
	"github.com/stemsi/courseware/internal/model"
)

const (
	maxNameLength        = 120
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

type courseInput struct {
	Title       string
	Description string
}

func (in courseInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&in.Description, validation.RuneLength(0, maxDescriptionLength)),
	)
}

type nameInput struct {
	Name string
}

func (in nameInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.RuneLength(1, maxNameLength)),
	)
}

// invalid wraps a rejected local input. Nothing was sent and nobody is
// notified; callers show the returned error inline.
func (n *Navigator) invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// ─── Courses ────────────────────────────────────────────────────────

func (n *Navigator) CreateCourse(ctx context.Context, title, description string) (*model.Course, error) {
	in := courseInput{Title: strings.TrimSpace(title), Description: strings.TrimSpace(description)}
	if err := in.Validate(); err != nil {
		return nil, n.invalid(err)
	}

	course, err := n.api.CreateCourse(ctx, model.CourseRequest{Title: in.Title, Description: in.Description})
	if err != nil {
		n.fail("Could not create course", err)
		return nil, err
	}

	_ = n.RefreshCourses(ctx)
	n.notify(LevelSuccess, "Course created", course.Title)
	return course, nil
}

func (n *Navigator) UpdateCourse(ctx context.Context, courseID int64, title, description string) (*model.Course, error) {
	in := courseInput{Title: strings.TrimSpace(title), Description: strings.TrimSpace(description)}
	if err := in.Validate(); err != nil {
		return nil, n.invalid(err)
	}

	course, err := n.api.UpdateCourse(ctx, courseID, model.CourseRequest{Title: in.Title, Description: in.Description})
	if err != nil {
		n.fail("Could not update course", err)
		return nil, err
	}

	n.mu.Lock()
	if n.course != nil && n.course.ID == courseID {
		updated := *course
		n.course = &updated
	}
	n.mu.Unlock()

	_ = n.RefreshCourses(ctx)
	n.notify(LevelSuccess, "Course updated", course.Title)
	return course, nil
}

// DeleteCourse removes a course. If it was selected the navigator resets.
func (n *Navigator) DeleteCourse(ctx context.Context, courseID int64) error {
	if err := n.api.DeleteCourse(ctx, courseID); err != nil {
		n.fail("Could not delete course", err)
		return err
	}

	n.mu.Lock()
	if n.course != nil && n.course.ID == courseID {
		n.resetLocked()
	}
	n.mu.Unlock()

	_ = n.RefreshCourses(ctx)
	n.notify(LevelSuccess, "Course deleted", "")
	return nil
}

// CreateBatch adds a batch to the selected course.
func (n *Navigator) CreateBatch(ctx context.Context, name string) (*model.Batch, error) {
	in := nameInput{Name: strings.TrimSpace(name)}
	if err := in.Validate(); err != nil {
		return nil, n.invalid(err)
	}

	n.mu.Lock()
	if n.course == nil {
		n.mu.Unlock()
		return nil, n.invalid(ErrNoCourse)
	}
	courseID := n.course.ID
	n.mu.Unlock()

	batch, err := n.api.CreateBatch(ctx, courseID, model.CreateBatchRequest{Name: in.Name})
	if err != nil {
		n.fail("Could not create batch", err)
		return nil, err
	}

	_ = n.refreshBatches(ctx, courseID)
	n.notify(LevelSuccess, "Batch created", batch.Name)
	return batch, nil
}

// ─── Folders ────────────────────────────────────────────────────────

// CreateFolder creates a folder inside the open folder, or at the batch root
// when none is open.
func (n *Navigator) CreateFolder(ctx context.Context, name string) (*model.Folder, error) {
	in := nameInput{Name: strings.TrimSpace(name)}
	if err := in.Validate(); err != nil {
		return nil, n.invalid(err)
	}

	n.mu.Lock()
	if n.batch == nil {
		n.mu.Unlock()
		return nil, n.invalid(ErrNoBatch)
	}
	req := model.CreateFolderRequest{BatchID: n.batch.ID, Name: in.Name}
	if open, ok := n.openLocked(); ok {
		parentID := open.ID
		req.ParentID = &parentID
	}
	n.mu.Unlock()

	folder, err := n.api.CreateFolder(ctx, req)
	if err != nil {
		n.fail("Could not create folder", err)
		return nil, err
	}

	_ = n.refreshFolders(ctx, req.BatchID)
	n.notify(LevelSuccess, "Folder created", folder.Name)
	return folder, nil
}

// RenameFolder renames a folder of the selected batch. The current name is
// a no-op and sends nothing.
func (n *Navigator) RenameFolder(ctx context.Context, folderID int64, name string) error {
	in := nameInput{Name: strings.TrimSpace(name)}
	if err := in.Validate(); err != nil {
		return n.invalid(err)
	}

	n.mu.Lock()
	if n.batch == nil {
		n.mu.Unlock()
		return n.invalid(ErrNoBatch)
	}
	batchID := n.batch.ID
	current, found := findFolder(n.folders, folderID)
	n.mu.Unlock()

	if !found {
		return n.invalid(ErrUnknownFolder)
	}
	if current.Name == in.Name {
		return nil
	}

	if err := n.api.RenameFolder(ctx, folderID, in.Name); err != nil {
		n.fail("Could not rename folder", err)
		return err
	}

	_ = n.refreshFolders(ctx, batchID)
	n.notify(LevelSuccess, "Folder renamed", in.Name)
	return nil
}

// DeleteFolder deletes a folder with everything below it. When the folder
// is open or an ancestor of the open folder, navigation returns to the batch.
func (n *Navigator) DeleteFolder(ctx context.Context, folderID int64) error {
	n.mu.Lock()
	if n.batch == nil {
		n.mu.Unlock()
		return n.invalid(ErrNoBatch)
	}
	batchID := n.batch.ID
	n.mu.Unlock()

	if err := n.api.DeleteFolder(ctx, folderID); err != nil {
		n.fail("Could not delete folder", err)
		return err
	}

	n.mu.Lock()
	if n.batch != nil && n.batch.ID == batchID && onPath(n.path, folderID) {
		n.path = nil
		n.files = []model.File{}
		n.bump(kindFiles)
	}
	n.mu.Unlock()

	_ = n.refreshFolders(ctx, batchID)
	n.notify(LevelSuccess, "Folder deleted", "")
	return nil
}

// ─── Files ──────────────────────────────────────────────────────────

// UploadFile sends r into the open folder and reloads its files.
func (n *Navigator) UploadFile(ctx context.Context, name string, r io.Reader, size int64, progress client.ProgressFunc) (*model.File, error) {
	in := nameInput{Name: strings.TrimSpace(name)}
	if err := in.Validate(); err != nil {
		return nil, n.invalid(err)
	}
	if r == nil {
		return nil, n.invalid(errors.New("file content is required"))
	}

	n.mu.Lock()
	open, ok := n.openLocked()
	n.mu.Unlock()
	if !ok {
		return nil, n.invalid(ErrNoFolder)
	}

	file, err := n.api.UploadFile(ctx, open.ID, in.Name, r, size, progress)
	if err != nil {
		n.fail("Upload failed", err)
		return nil, err
	}

	_ = n.refreshFiles(ctx, open.ID)
	n.notify(LevelSuccess, "File uploaded", file.Name)
	return file, nil
}

func findFolder(folders []model.Folder, id int64) (model.Folder, bool) {
	for _, f := range folders {
		if f.ID == id {
			return f, true
		}
	}
	return model.Folder{}, false
}

func onPath(path []model.Folder, id int64) bool {
	for _, p := range path {
		if p.ID == id {
			return true
		}
	}
	return false
}
