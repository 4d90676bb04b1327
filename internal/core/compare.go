package core

import (
	"fmt"
	"os"
	"strings"
)

// Comparator checks captured output against golden files.
type Comparator struct {
	// Normalizer is applied to both actual and golden text before splitting.
	// Nil means LineEndingNormalizer.
	Normalizer OutputNormalizer
}

func (c *Comparator) normalizer() OutputNormalizer {
	if c == nil || c.Normalizer == nil {
		return LineEndingNormalizer{}
	}
	return c.Normalizer
}

// SplitLines splits actual output on newlines and strips a trailing carriage
// return from each line. Trailing empty lines are dropped; interior empty
// lines are kept.
func (c *Comparator) SplitLines(actual []byte) []string {
	text := string(c.normalizer().Normalize(actual))
	lines := chompLines(strings.Split(text, "\n"))
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ReadExpected reads a golden file as an ordered list of lines with line
// terminators, LF or CRLF or a lone trailing CR, stripped.
func (c *Comparator) ReadExpected(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, configErrorf(err, "reading golden file %s", path)
	}
	text := string(c.normalizer().Normalize(b))
	if text == "" {
		return nil, nil
	}
	text = strings.TrimSuffix(text, "\n")
	return chompLines(strings.Split(text, "\n")), nil
}

func chompLines(lines []string) []string {
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Check compares actual output with the golden file at expectedPath. It
// returns nil on a pass and a *ComparisonMismatch otherwise.
func (c *Comparator) Check(actual []byte, expectedPath string) error {
	expected, err := c.ReadExpected(expectedPath)
	if err != nil {
		return err
	}
	if extra := Unexpected(c.SplitLines(actual), expected); len(extra) > 0 {
		return &ComparisonMismatch{Unexpected: extra}
	}
	return nil
}

// Compare reports whether every actual line appears somewhere in expected.
//
// The check is one-sided set difference: order and duplicate counts are
// ignored, and expected may hold lines that never appear in actual.
// Compare(a, b) is not Compare(b, a).
func Compare(actual, expected []string) bool {
	return len(Unexpected(actual, expected)) == 0
}

// Unexpected returns the distinct actual lines missing from expected, in
// first-seen order.
func Unexpected(actual, expected []string) []string {
	known := make(map[string]struct{}, len(expected))
	for _, l := range expected {
		known[l] = struct{}{}
	}
	var extra []string
	reported := make(map[string]struct{})
	for _, l := range actual {
		if _, ok := known[l]; ok {
			continue
		}
		if _, ok := reported[l]; ok {
			continue
		}
		reported[l] = struct{}{}
		extra = append(extra, l)
	}
	return extra
}

// WriteExpected replaces the golden file at path with actual output, one
// line per line and a trailing newline.
func (c *Comparator) WriteExpected(path string, actual []byte) error {
	lines := c.SplitLines(actual)
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing golden file %s: %w", path, err)
	}
	return nil
}
