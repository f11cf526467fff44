package hierarchy

import (
	"errors"

	"github.com/stemsi/courseware/internal/model"
)

// State is where the navigator currently is in Course → Batch → Folder.
type State int

const (
	NoCourse State = iota
	CourseSelected
	BatchSelected
	FolderOpen
)

func (s State) String() string {
	switch s {
	case NoCourse:
		return "no_course"
	case CourseSelected:
		return "course_selected"
	case BatchSelected:
		return "batch_selected"
	case FolderOpen:
		return "folder_open"
	}
	return "unknown"
}

// Target is a breadcrumb destination for NavigateTo.
type Target int

const (
	// TargetHome resets to the course picker.
	TargetHome Target = iota
	TargetCourse
	TargetBatch
	TargetFolder
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNoCourse       = errors.New("no course selected")
	ErrNoBatch        = errors.New("no batch selected")
	ErrNoFolder       = errors.New("no folder open")
	ErrBatchMismatch  = errors.New("batch belongs to another course")
	ErrFolderMismatch = errors.New("folder belongs to another batch")
	ErrUnknownFolder  = errors.New("folder not in the current batch")
	ErrUnknownStudent = errors.New("student not in directory")
)

// updatePath applies truncate-or-append. Re-opening a folder already on the
// path cuts the path back to it. A child of the last entry is appended.
// Anything else is reached by rebuilding its ancestor chain from folders.
func updatePath(path []model.Folder, open model.Folder, folders []model.Folder) []model.Folder {
	for i, p := range path {
		if p.ID == open.ID {
			out := make([]model.Folder, i+1)
			copy(out, path[:i+1])
			out[i] = open
			return out
		}
	}

	if (len(path) == 0 && open.IsRoot()) || (len(path) > 0 && open.ParentID() == path[len(path)-1].ID) {
		out := make([]model.Folder, len(path), len(path)+1)
		copy(out, path)
		return append(out, open)
	}

	if chain, ok := ancestry(open, folders); ok {
		return chain
	}
	out := make([]model.Folder, len(path), len(path)+1)
	copy(out, path)
	return append(out, open)
}

// ancestry walks parent links from f up to the batch root.
func ancestry(f model.Folder, folders []model.Folder) ([]model.Folder, bool) {
	byID := make(map[int64]model.Folder, len(folders))
	for _, folder := range folders {
		byID[folder.ID] = folder
	}

	chain := []model.Folder{f}
	cur := f
	for !cur.IsRoot() {
		parent, ok := byID[cur.ParentID()]
		if !ok || len(chain) > len(folders) {
			return nil, false
		}
		chain = append(chain, parent)
		cur = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, true
}

// childrenOf filters the flat batch list down to one level.
func childrenOf(folders []model.Folder, parentID int64) []model.Folder {
	out := make([]model.Folder, 0)
	for _, f := range folders {
		if f.ParentID() == parentID {
			out = append(out, f)
		}
	}
	return out
}
