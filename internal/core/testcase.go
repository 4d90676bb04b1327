package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	InputExt    = ".in"
	ExpectedExt = ".out"
)

// TestCase is identified by (Stage, Index). Immutable once discovered.
type TestCase struct {
	Stage Stage
	Index int

	// InputPath is <dir>/<NNN>.in.
	InputPath string

	// ExpectedPath is <dir>/<NNN>.out.
	ExpectedPath string
}

// CaseName renders a 1-based index as the 3-digit zero-padded file stem.
func CaseName(index int) string {
	return fmt.Sprintf("%03d", index)
}

// CaseScanner discovers the test cases of one stage directory.
//
// Discovery starts at 001 and stops at the first index whose .in file does
// not exist: a gap truncates the sequence even if higher numbers are present.
// The sequence is lazy and cannot be restarted.
//
//	sc := NewCaseScanner(stage, root)
//	for sc.Next() {
//		tc := sc.Case()
//	}
//	if err := sc.Err(); err != nil { ... }
type CaseScanner struct {
	stage Stage
	dir   string

	// RequireExpected makes a missing golden file a ConfigurationError.
	RequireExpected bool

	next int
	cur  TestCase
	err  error
	done bool
}

// NewCaseScanner creates a scanner over stage's directory under root.
func NewCaseScanner(stage Stage, root string) *CaseScanner {
	return &CaseScanner{
		stage:           stage,
		dir:             stage.Path(root),
		RequireExpected: true,
		next:            1,
	}
}

// Dir returns the scanned directory.
func (s *CaseScanner) Dir() string { return s.dir }

// Next advances to the next case. It returns false when discovery ends or
// fails; Err distinguishes the two.
func (s *CaseScanner) Next() bool {
	if s.done {
		return false
	}

	name := CaseName(s.next)
	in := filepath.Join(s.dir, name+InputExt)
	ok, err := fileExists(in)
	if err != nil {
		return s.fail(configErrorf(err, "stat %s", in))
	}
	if !ok {
		s.done = true
		return false
	}

	out := filepath.Join(s.dir, name+ExpectedExt)
	if s.RequireExpected {
		ok, err := fileExists(out)
		if err != nil {
			return s.fail(configErrorf(err, "stat %s", out))
		}
		if !ok {
			return s.fail(configErrorf(nil, "golden file %s missing for %s", out, in))
		}
	}

	s.cur = TestCase{Stage: s.stage, Index: s.next, InputPath: in, ExpectedPath: out}
	s.next++
	return true
}

// Case returns the case produced by the last successful Next.
func (s *CaseScanner) Case() TestCase { return s.cur }

// Err returns the error that stopped discovery, if any.
func (s *CaseScanner) Err() error { return s.err }

func (s *CaseScanner) fail(err error) bool {
	s.err = err
	s.done = true
	return false
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}
