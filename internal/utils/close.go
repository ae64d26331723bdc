package utils

import (
	"io"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical,
// like draining HTTP response bodies.
func Close(c io.Closer) {
	_ = c.Close()
}
