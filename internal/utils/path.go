package utils

import (
	"errors"
	"path"
	"strings"
)

var (
	// ErrInvalidPath is returned for paths that contain a null byte or climb above the root.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidName is returned when a user-supplied file or folder name is empty after cleaning.
	ErrInvalidName = errors.New("invalid name")
)

// SanitizePath normalizes a user-supplied path into a root-relative path
// using "/" separators. The empty result is the root itself.
//
// Unlike a filesystem, ".." at the root is not clamped: any attempt to
// climb above the root is rejected with ErrInvalidPath.
func SanitizePath(raw string) (string, error) {
	if strings.ContainsRune(raw, 0) {
		return "", ErrInvalidPath
	}
	raw = strings.ReplaceAll(raw, `\`, "/")
	raw = strings.Trim(raw, "/ \t\r\n\v\f")
	if raw == "" {
		return "", nil
	}

	var stack []string
	for _, segment := range strings.Split(raw, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", ErrInvalidPath
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, segment)
		}
	}
	return strings.Join(stack, "/"), nil
}

// SanitizeName cleans a single name component before it is used as a file
// name or storage key segment.
func SanitizeName(name string) (string, error) {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return name, nil
}

// JoinPath joins root-relative path segments, treating "" as the root.
func JoinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if name == "" {
		return dir
	}
	return dir + "/" + name
}

// ParentPath returns the root-relative parent of p ("" for top-level items).
func ParentPath(p string) string {
	parent := path.Dir(p)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

// BaseName returns the last segment of a root-relative path.
func BaseName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// IsWithin reports whether p equals dir or is one of its descendants.
func IsWithin(p, dir string) bool {
	if dir == "" {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}
