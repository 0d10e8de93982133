package content

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document has the requested keyword.
	ErrNotFound = errors.New("document not found")

	// ErrNoContent is returned by Open when the path is not a directory.
	ErrNoContent = errors.New("no content")
)

// SyntaxError reports malformed front matter in a document.
type SyntaxError struct {
	Filename string
	Line     int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Msg)
}
