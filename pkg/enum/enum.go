// Package enum discovers the buffers a scan evaluates.
package enum

import (
	"context"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// Callback receives one blob. It may be called from several goroutines at
// once.
type Callback func(content []byte, blobID types.BlobID, prov types.Provenance) error

// Enumerator discovers content to scan from a source.
type Enumerator interface {
	// Enumerate yields blobs from the source.
	Enumerate(ctx context.Context, callback Callback) error
}

// Skip reasons passed to Config.OnSkip.
const (
	SkipTooLarge = "too_large"
	SkipBinary   = "binary"
	SkipIgnored  = "gitignore"
	SkipHidden   = "hidden"
)

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration, a directory or a file.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// IncludeBinary evaluates files containing NUL bytes instead of skipping them.
	IncludeBinary bool

	// Readers is the number of parallel file readers (0 = runtime.NumCPU()).
	Readers int

	// OnSkip is called for every file left out of the scan. It may be
	// called from several goroutines at once.
	OnSkip func(path, reason string)
}

func (c Config) skip(path, reason string) {
	if c.OnSkip != nil {
		c.OnSkip(path, reason)
	}
}
