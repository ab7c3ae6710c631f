package enum

import (
	"context"
	"fmt"
	"io"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

// ReaderEnumerator yields the whole content of one reader as a single blob.
type ReaderEnumerator struct {
	r       io.Reader
	label   string
	maxSize int64
}

// NewReaderEnumerator creates an enumerator over r. maxSize limits how much
// is read (0 = no limit); longer input is an error.
func NewReaderEnumerator(r io.Reader, label string, maxSize int64) *ReaderEnumerator {
	return &ReaderEnumerator{r: r, label: label, maxSize: maxSize}
}

// Enumerate reads the input and invokes callback once.
func (e *ReaderEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r := e.r
	if e.maxSize > 0 {
		r = io.LimitReader(e.r, e.maxSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", e.label, err)
	}
	if e.maxSize > 0 && int64(len(content)) > e.maxSize {
		return fmt.Errorf("%s exceeds the %d byte limit", e.label, e.maxSize)
	}

	return callback(content, types.ComputeBlobID(content), types.BufferProvenance{Label: e.label})
}
