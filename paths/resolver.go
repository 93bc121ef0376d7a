// Package paths locates source data files relative to the project root.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	c "github.com/relloyd/bronze/constants"
)

// DirectoryNotFoundError is returned when no project root could be found above any search root.
type DirectoryNotFoundError struct {
	Markers []string
	Roots   []string
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("unable to find a project directory named %v in or above %v",
		strings.Join(e.Markers, " or "), strings.Join(e.Roots, ", "))
}

// FileNotFoundError is returned when the project root exists but the requested file does not.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %v", e.Path)
}

// Resolver finds files under <project root>/<SubPath>.
// The project root is a directory whose name is one of Markers.
type Resolver struct {
	Markers  []string // defaults to constants.ProjectRootMarkers
	SubPath  string   // defaults to constants.DefaultDataSubPath
	EnvVar   string   // env var that names an extra search root, tried first; defaults to constants.EnvVarAssignmentDir
	StartDir string   // defaults to the working directory
}

// NewResolver returns a Resolver with default settings.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the path of filename under the data directory of the project root.
func (r *Resolver) Resolve(filename string) (string, error) {
	root, err := r.ProjectRoot()
	if err != nil {
		return "", err
	}
	p := filepath.Join(root, r.subPath(), filename)
	if !isFile(p) {
		return "", &FileNotFoundError{Path: p}
	}
	return p, nil
}

// ResolveSource treats source as an explicit path when it is absolute or contains a path separator,
// otherwise it is resolved as a file name under the project data directory.
func (r *Resolver) ResolveSource(source string) (string, error) {
	if filepath.IsAbs(source) || strings.ContainsRune(source, filepath.Separator) || strings.ContainsRune(source, '/') {
		p := filepath.Clean(source)
		if !isFile(p) {
			return "", &FileNotFoundError{Path: p}
		}
		return p, nil
	}
	return r.Resolve(source)
}

// ProjectRoot walks up from each search root in turn and returns the first project directory found.
// At each level a directory named after a marker is the root itself, otherwise a child directory
// named after a marker is the root.
func (r *Resolver) ProjectRoot() (string, error) {
	roots, err := r.searchRoots()
	if err != nil {
		return "", err
	}
	markers := r.markers()
	for _, root := range roots {
		for dir := root; ; dir = filepath.Dir(dir) {
			base := filepath.Base(dir)
			for _, m := range markers {
				if base == m {
					return dir, nil
				}
			}
			for _, m := range markers {
				if candidate := filepath.Join(dir, m); isDir(candidate) {
					return candidate, nil
				}
			}
			if parent := filepath.Dir(dir); parent == dir { // if we reached the file system root...
				break
			}
		}
	}
	return "", &DirectoryNotFoundError{Markers: markers, Roots: roots}
}

func (r *Resolver) searchRoots() ([]string, error) {
	roots := make([]string, 0, 2)
	envVar := r.EnvVar
	if envVar == "" {
		envVar = c.EnvVarAssignmentDir
	}
	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return nil, fmt.Errorf("unable to read %v: %w", envVar, err)
		}
		roots = append(roots, abs)
	}
	start := r.StartDir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("unable to get working directory: %w", err)
		}
		start = wd
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("unable to read start directory %v: %w", start, err)
	}
	return append(roots, abs), nil
}

func (r *Resolver) markers() []string {
	if len(r.Markers) > 0 {
		return r.Markers
	}
	return c.ProjectRootMarkers
}

func (r *Resolver) subPath() string {
	if r.SubPath != "" {
		return r.SubPath
	}
	return c.DefaultDataSubPath
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
