// Package content maps files under a project content folder to asset object
// paths and implements the file-backed texture source and sink.
package content

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ObjectPrefix is the mount point of the content root in object paths.
const ObjectPrefix = "/Game"

var (
	// ErrOutsideRoot indicates a path that does not resolve inside the content root.
	ErrOutsideRoot = errors.New("path is not inside the content root")

	// ErrBadObjectPath indicates a string that is not a /Game/... object path.
	ErrBadObjectPath = errors.New("malformed object path")
)

// Root is an absolute content directory.
type Root struct {
	Dir string
}

// NewRoot resolves dir to an absolute path and checks that it is a directory.
func NewRoot(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("resolve content root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Root{}, fmt.Errorf("content root: %w", err)
	}
	if !info.IsDir() {
		return Root{}, fmt.Errorf("content root %s is not a directory", abs)
	}
	return Root{Dir: abs}, nil
}

// Rel returns p relative to the root in slash form. The root itself is ".".
func (r Root) Rel(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	rel, err := filepath.Rel(r.Dir, abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return rel, nil
}

// ObjectPath maps a file under the root to /Game/<dir>/<Name>.<Name>.
// The extension is dropped.
func (r Root) ObjectPath(file string) (string, error) {
	rel, err := r.Rel(file)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", fmt.Errorf("%w: %s is the content root", ErrOutsideRoot, file)
	}
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	name := path.Base(rel)
	return ObjectPrefix + "/" + rel + "." + name, nil
}

// MaterialInstancePath maps a folder to the material instance named after it:
// /Game/<dir>/<Folder>/<Folder>.<Folder>.
func (r Root) MaterialInstancePath(folder string) (string, error) {
	rel, err := r.Rel(folder)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", fmt.Errorf("%w: %s is the content root, not a material folder", ErrOutsideRoot, folder)
	}
	name := path.Base(rel)
	return ObjectPrefix + "/" + rel + "/" + name + "." + name, nil
}

// FilePath maps an object path back to a file under the root with extension ext.
func (r Root) FilePath(objectPath, ext string) (string, error) {
	pkg, _, err := SplitObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	rel := strings.TrimPrefix(pkg, ObjectPrefix+"/")
	return filepath.Join(r.Dir, filepath.FromSlash(rel)+ext), nil
}

// SplitObjectPath splits /Game/Dir/Name.Name into its package path
// (/Game/Dir/Name) and asset name (Name).
func SplitObjectPath(objectPath string) (pkg, name string, err error) {
	if !strings.HasPrefix(objectPath, ObjectPrefix+"/") {
		return "", "", fmt.Errorf("%w: %q", ErrBadObjectPath, objectPath)
	}
	// Asset names may contain dots, so try every dot after the last slash.
	slash := strings.LastIndex(objectPath, "/")
	for i := slash + 1; i < len(objectPath); i++ {
		if objectPath[i] != '.' {
			continue
		}
		pkg, name = objectPath[:i], objectPath[i+1:]
		if name != "" && path.Base(pkg) == name {
			return pkg, name, nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrBadObjectPath, objectPath)
}
