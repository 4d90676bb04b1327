package core

import (
	"errors"
	"io/fs"
	"os"
)

// ArtifactSet tracks the temporary files one code-generation case produces
// (assembly output, object file, executable).
//
// A set lives for exactly one case. Remove deletes every recorded path and
// is called on every exit path of the case, so nothing from case N survives
// into case N+1.
type ArtifactSet struct {
	paths []string
	seen  map[string]bool
}

// Record adds path to the set. Recording the same path twice is a no-op.
func (a *ArtifactSet) Record(path string) {
	if a.seen == nil {
		a.seen = make(map[string]bool)
	}
	if path == "" || a.seen[path] {
		return
	}
	a.seen[path] = true
	a.paths = append(a.paths, path)
}

// Paths returns the recorded paths in recording order.
func (a *ArtifactSet) Paths() []string {
	out := make([]string, len(a.paths))
	copy(out, a.paths)
	return out
}

// Remove deletes every recorded artifact, best-effort. Paths that never came
// into existence are ignored. Every path that could not be removed is returned
// as an *ArtifactCleanupError; the set is emptied either way.
func (a *ArtifactSet) Remove() []error {
	var errs []error
	for _, p := range a.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, &ArtifactCleanupError{Path: p, Cause: err})
		}
	}
	a.paths = nil
	a.seen = nil
	return errs
}
