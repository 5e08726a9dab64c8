package models

import (
	"time"
)

type Folder struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	ParentID  *string   `json:"parent_id" db:"parent_id"` // NULL = root level
	Name      string    `json:"name" db:"name"`
	IsDeleted bool      `json:"is_deleted" db:"is_deleted"`
	IsStarred bool      `json:"is_starred" db:"is_starred"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Crumb is one entry of a breadcrumb trail, outermost first.
type Crumb struct {
	ID   *string `json:"id"` // nil for the synthetic root entry
	Name string  `json:"name"`
}
