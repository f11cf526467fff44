package model

// ContentEventType names what changed inside a batch.
type ContentEventType string

const (
	EventFoldersChanged ContentEventType = "folders_changed"
	EventFilesChanged   ContentEventType = "files_changed"
	EventRosterChanged  ContentEventType = "roster_changed"
)

// ContentEvent is published on a batch channel after every successful write.
// FolderID is set for file events.
type ContentEvent struct {
	Type     ContentEventType `json:"type"`
	BatchID  int64            `json:"batch_id"`
	FolderID int64            `json:"folder_id,omitempty"`
}
