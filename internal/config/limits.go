package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxFileNameLength is the maximum length for file names.
	// Same as folder names for consistency.
	MaxFileNameLength = 255

	// MaxPathLength is the maximum length for full folder paths.
	// Set to 500 to allow paths like "A/B/C/D/E" where each segment
	// can be up to 100 characters. Longer paths indicate overly deep
	// hierarchies (anti-pattern).
	MaxPathLength = 500

	// MaxTreeDepth bounds every recursive walk over the folder tree:
	// path resolution, cascades, and breadcrumb construction. A cycle
	// in parent pointers can never loop past this.
	MaxTreeDepth = 100

	// DefaultPageSize is the page size for folder listings when the
	// client does not specify one.
	DefaultPageSize = 50

	// MaxPageSize caps client-requested page sizes.
	MaxPageSize = 200

	// SignedURLTTLSeconds is how long a presigned download URL stays
	// valid. Long enough for a slow client to start the download,
	// short enough that leaked URLs age out quickly.
	SignedURLTTLSeconds = 900
)
