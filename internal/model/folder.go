package model

import "time"

// FolderRef is the minimal parent reference embedded in a folder.
type FolderRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Folder is a node in a batch's folder tree. Parent is nil at the batch root.
type Folder struct {
	ID        int64      `json:"id"`
	BatchID   int64      `json:"batch_id"`
	Name      string     `json:"name"`
	Parent    *FolderRef `json:"parent,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsRoot reports whether the folder sits directly under its batch.
func (f Folder) IsRoot() bool {
	return f.Parent == nil
}

// ParentID returns the parent folder id, or 0 at the root.
func (f Folder) ParentID() int64 {
	if f.Parent == nil {
		return 0
	}
	return f.Parent.ID
}

// CreateFolderRequest is the payload for creating a folder.
type CreateFolderRequest struct {
	BatchID  int64  `json:"batch_id" binding:"required,gt=0"`
	Name     string `json:"name" binding:"required,notblank,max=120"`
	ParentID *int64 `json:"parent_id" binding:"omitempty,gt=0"`
}

// RenameFolderRequest is the payload for renaming a folder.
type RenameFolderRequest struct {
	Name string `json:"name" binding:"required,notblank,max=120"`
}

// File is a leaf in a folder. StorageKey never leaves the server.
type File struct {
	ID          int64     `json:"id"`
	FolderID    int64     `json:"folder_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
