package matcher

import "fmt"

// Cursor is a forward-only position over a buffer of fixed length.
type Cursor struct {
	pos int
	end int
}

// NewCursor returns a cursor at 0 over n bytes.
func NewCursor(n int) Cursor {
	return Cursor{end: n}
}

// Pos returns the current offset.
func (c *Cursor) Pos() int { return c.pos }

// Done reports whether the cursor reached the end.
func (c *Cursor) Done() bool { return c.pos >= c.end }

// Remaining returns the number of bytes left.
func (c *Cursor) Remaining() int {
	if c.Done() {
		return 0
	}
	return c.end - c.pos
}

// Advance moves forward n bytes. n < 1 would stall the scan loop and is a
// programming error.
func (c *Cursor) Advance(n int) {
	if n < 1 {
		panic(fmt.Sprintf("matcher: cursor advance by %d", n))
	}
	c.pos += n
}
