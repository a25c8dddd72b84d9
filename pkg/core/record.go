package core

// FileRecord is an indexed media object. The record never holds the object's
// bytes; Locator is handed to the remote transport to fetch them.
type FileRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Caption   string    `json:"caption,omitempty"`
	Size      int64     `json:"size"`
	Locator   string    `json:"locator"`
	Partition Partition `json:"-"`
}
