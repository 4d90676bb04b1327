package core

import "bytes"

// OutputNormalizer rewrites captured output before it is split into lines.
type OutputNormalizer interface {
	Normalize(content []byte) []byte
}

// LineEndingNormalizer converts CRLF line endings to LF, then applies Inner
// if set.
type LineEndingNormalizer struct {
	Inner OutputNormalizer
}

func (n LineEndingNormalizer) Normalize(content []byte) []byte {
	result := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if n.Inner != nil {
		result = n.Inner.Normalize(result)
	}
	return result
}
