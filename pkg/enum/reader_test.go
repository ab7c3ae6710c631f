package enum

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagardeyrakesh/sdpattern/pkg/types"
)

func TestReaderEnumerator(t *testing.T) {
	var got []byte
	var gotProv types.Provenance
	calls := 0

	e := NewReaderEnumerator(strings.NewReader("SSN 078-05-1120"), "stdin", 0)
	err := e.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, prov types.Provenance) error {
		calls++
		got = content
		gotProv = prov
		assert.Equal(t, types.ComputeBlobID(content), blobID)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "SSN 078-05-1120", string(got))
	assert.Equal(t, "buffer", gotProv.Kind())
	assert.Equal(t, "stdin", gotProv.Path())
}

func TestReaderEnumerator_MaxSize(t *testing.T) {
	noop := func([]byte, types.BlobID, types.Provenance) error { return nil }

	err := NewReaderEnumerator(strings.NewReader("12345"), "stdin", 5).Enumerate(context.Background(), noop)
	assert.NoError(t, err)

	err = NewReaderEnumerator(strings.NewReader("123456"), "stdin", 5).Enumerate(context.Background(), noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the 5 byte limit")
}

func TestReaderEnumerator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewReaderEnumerator(strings.NewReader("x"), "stdin", 0).Enumerate(ctx,
		func([]byte, types.BlobID, types.Provenance) error {
			t.Fatal("callback must not run")
			return nil
		})
	assert.ErrorIs(t, err, context.Canceled)
}
