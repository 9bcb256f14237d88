package tree

import (
	"path"
	"path/filepath"
	"strings"

	"tagbrowser/internal/errors"
)

// Role is the position of a folder in the publisher → topic → chapter
// hierarchy.
type Role int

const (
	RoleNone Role = iota
	RolePublisher
	RoleTopic
	RoleChapter
)

func (r Role) String() string {
	switch r {
	case RolePublisher:
		return "publisher"
	case RoleTopic:
		return "topic"
	case RoleChapter:
		return "chapter"
	default:
		return "none"
	}
}

// Split returns the components of a slash separated relative path.
// The root "." has none.
func Split(rel string) []string {
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." || rel == "" {
		return nil
	}
	return strings.Split(rel, "/")
}

// Depth is the number of components in rel.
func Depth(rel string) int {
	return len(Split(rel))
}

// RoleOf returns the role a folder plays based on its depth.
func RoleOf(rel string) Role {
	switch Depth(rel) {
	case 1:
		return RolePublisher
	case 2:
		return RoleTopic
	case 3:
		return RoleChapter
	default:
		return RoleNone
	}
}

// Name is the last component of rel.
func Name(rel string) string {
	parts := Split(rel)
	if len(parts) == 0 {
		return "."
	}
	return parts[len(parts)-1]
}

// Join builds a relative key from components.
func Join(parts ...string) string {
	return path.Join(parts...)
}

// Clean validates a user supplied relative path and returns its key form.
// Both / and \ separate components. Absolute paths and paths that climb out
// of the root are rejected.
func Clean(rel string) (string, error) {
	slashed := strings.ReplaceAll(filepath.ToSlash(strings.TrimSpace(rel)), `\`, "/")
	if slashed == "" {
		return "", errors.NewPathError(rel, errors.ErrInvalidInput)
	}
	if path.IsAbs(slashed) || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", errors.NewPathError(rel, errors.ErrOutsideRoot)
	}
	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.NewPathError(rel, errors.ErrOutsideRoot)
	}
	return cleaned, nil
}

// RoleError is returned when a folder is used at the wrong level.
type RoleError struct {
	Path string
	Want Role
}

func (e *RoleError) Error() string {
	return "folder " + e.Path + " is a " + RoleOf(e.Path).String() + ", want " + e.Want.String()
}

// Is reports role errors as invalid input.
func (e *RoleError) Is(target error) bool {
	return target == errors.ErrInvalidInput
}
