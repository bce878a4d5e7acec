package view

import "errors"

var (
	// ErrNotFound means no renderer knows the view. Chain moves on to the
	// next renderer only for this error.
	ErrNotFound = errors.New("view: not found")

	ErrRender      = errors.New("view: render failed")
	ErrFrontmatter = errors.New("view: invalid frontmatter")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
