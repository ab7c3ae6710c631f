package types

// Provenance tracks where a blob was discovered.
type Provenance interface {
	Kind() string
	// Path returns displayable path (if applicable)
	Path() string
}

// FileProvenance for filesystem files.
type FileProvenance struct {
	FilePath string
}

// Kind returns "file".
func (f FileProvenance) Kind() string {
	return "file"
}

// Path returns the file path.
func (f FileProvenance) Path() string {
	return f.FilePath
}

// BufferProvenance for buffers handed in directly (stdin, tests, host integrations).
type BufferProvenance struct {
	Label string
}

// Kind returns "buffer".
func (b BufferProvenance) Kind() string {
	return "buffer"
}

// Path returns the buffer label.
func (b BufferProvenance) Path() string {
	return b.Label
}
