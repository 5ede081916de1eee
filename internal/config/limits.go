package config

import "time"

const (
	// MaxGuideTitleLength is the maximum length for guide and journey
	// titles. Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (titles should be short and descriptive).
	MaxGuideTitleLength = 255

	// MaxSlugLength is the maximum length for guide and journey slugs.
	MaxSlugLength = 255

	// MaxSummaryLength caps journey summaries.
	MaxSummaryLength = 2000

	// MaxContentBytes caps the HTML payload accepted by the parse and
	// sanitize endpoints. Docs pages run tens of kilobytes; 2MB leaves
	// generous headroom without letting a client exhaust memory.
	MaxContentBytes = 2 << 20

	// MaxImportArchiveBytes caps uploaded import zips.
	MaxImportArchiveBytes = 20 << 20

	// MaxImportFileBytes caps a single decompressed file inside an import
	// zip, bounding zip-bomb expansion.
	MaxImportFileBytes = 4 << 20

	// MaxFetchResponseBytes caps the body read from a fetched source URL.
	MaxFetchResponseBytes = 5 << 20

	// FetchTimeout bounds one source URL fetch including all variant
	// attempts.
	FetchTimeout = 15 * time.Second

	// FetchCacheTTL is how long fetched pages stay cached. Docs publish
	// continuously; minutes, not hours.
	FetchCacheTTL = 15 * time.Minute

	// DefaultLogRetention is how many timestamped run logs to keep.
	DefaultLogRetention = 5
)
