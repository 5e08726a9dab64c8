package models

import (
	"time"
)

// PermissionType is the access level a grant or link carries.
type PermissionType string

const (
	PermissionView PermissionType = "view"
	PermissionEdit PermissionType = "edit"
)

// Valid reports whether t is a known permission type.
func (t PermissionType) Valid() bool {
	return t == PermissionView || t == PermissionEdit
}

// Permission grants a user read access to a single file.
// Unique per (file_id, shared_with); last write wins on permission_type.
type Permission struct {
	ID             string         `json:"id" db:"id"`
	FileID         string         `json:"file_id" db:"file_id"`
	SharedWith     string         `json:"shared_with" db:"shared_with"`
	PermissionType PermissionType `json:"permission_type" db:"permission_type"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// ShareLink is a time-limited, token-addressed grant on a single file.
type ShareLink struct {
	ID             string         `json:"id" db:"id"`
	FileID         string         `json:"file_id" db:"file_id"`
	LinkToken      string         `json:"link_token" db:"link_token"`
	CreatedBy      string         `json:"created_by" db:"created_by"`
	PermissionType PermissionType `json:"permission_type" db:"permission_type"`
	ExpiresAt      *time.Time     `json:"expires_at" db:"expires_at"` // NULL = never expires
	IsActive       bool           `json:"is_active" db:"is_active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}
