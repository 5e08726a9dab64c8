package models

import (
	"time"
)

type File struct {
	ID         string    `json:"id" db:"id"`
	OwnerID    string    `json:"owner_id" db:"owner_id"`
	FolderID   *string   `json:"folder_id" db:"folder_id"` // NULL = root level
	Name       string    `json:"name" db:"name"`
	MimeType   string    `json:"mime_type" db:"mime_type"`
	SizeBytes  int64     `json:"size_bytes" db:"size_bytes"`
	StorageKey string    `json:"storage_key" db:"storage_key"` // current version's blob key
	Checksum   string    `json:"checksum" db:"checksum"`
	IsDeleted  bool      `json:"is_deleted" db:"is_deleted"`
	IsStarred  bool      `json:"is_starred" db:"is_starred"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// FileVersion records one immutable uploaded revision of a file.
// Version numbers are strictly increasing per file, starting at 1.
type FileVersion struct {
	ID            string    `json:"id" db:"id"`
	FileID        string    `json:"file_id" db:"file_id"`
	StorageKey    string    `json:"storage_key" db:"storage_key"`
	VersionNumber int       `json:"version_number" db:"version_number"`
	SizeBytes     int64     `json:"size_bytes" db:"size_bytes"`
	Checksum      string    `json:"checksum" db:"checksum"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
