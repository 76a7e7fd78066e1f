// Package chunker splits document text into overlapping line-bounded chunks
// for sub-document indexing.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/recallhq/recall/internal/fingerprint"
)

const (
	DefaultMaxTokens     = 500
	DefaultOverlapTokens = 50

	// Rough token-to-character approximation: 1 token ≈ 4 characters.
	charsPerToken = 4

	// Floor for the character budget regardless of MaxTokens.
	minMaxChars = 128
)

// Options configures chunking behavior. Token counts are approximated at
// four characters per token.
type Options struct {
	MaxTokens     int
	OverlapTokens int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{MaxTokens: DefaultMaxTokens, OverlapTokens: DefaultOverlapTokens}
}

// Chunk is one emitted segment with its position in the original text.
// Indices are contiguous and 0-based in emission order.
type Chunk struct {
	Index       int    `json:"index"`
	Content     string `json:"content"`
	StartLine   int    `json:"start_line"` // 1-based, inclusive
	EndLine     int    `json:"end_line"`
	Fingerprint string `json:"fingerprint"`
}

// Split cuts content into overlapping chunks on line boundaries.
//
// Lines are accumulated into a buffer; when appending the next line would
// push the buffer over the character budget the buffer is emitted as a
// chunk. If overlap is requested, the new buffer is seeded with the tail of
// the emitted chunk and its start line is set to the emitted chunk's last
// line, so the overlapping text is attributed to a line range that
// legitimately contains it.
//
// A line is never split: a single line longer than the budget becomes an
// over-budget chunk on its own. Line integrity takes priority over strict
// size compliance.
func Split(content string, opts Options) []Chunk {
	if content == "" {
		return nil
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	maxChars := opts.MaxTokens * charsPerToken
	if maxChars < minMaxChars {
		maxChars = minMaxChars
	}
	overlapChars := opts.OverlapTokens * charsPerToken
	if overlapChars < 0 {
		overlapChars = 0
	}

	lines := strings.Split(content, "\n")

	var (
		chunks   []Chunk
		buf      string
		hasBuf   bool
		bufStart int
		bufEnd   int
	)

	emit := func() {
		chunks = append(chunks, Chunk{
			Index:       len(chunks),
			Content:     buf,
			StartLine:   bufStart,
			EndLine:     bufEnd,
			Fingerprint: fingerprint.Hash(buf),
		})
	}

	for i, line := range lines {
		lineNum := i + 1

		if hasBuf && len(buf)+1+len(line) > maxChars {
			emit()
			if overlapChars > 0 && len(buf) > overlapChars {
				// Seed the next buffer with the emitted tail. The overlap
				// region stays attributed to the emitted chunk's last line.
				// The cut advances to the next rune boundary so the seed
				// never starts mid-rune.
				cut := len(buf) - overlapChars
				for cut < len(buf) && !utf8.RuneStart(buf[cut]) {
					cut++
				}
				buf = buf[cut:]
				bufStart = bufEnd
			} else {
				buf = ""
				hasBuf = false
			}
		}

		if !hasBuf {
			buf = line
			bufStart = lineNum
			hasBuf = true
		} else {
			buf += "\n" + line
		}
		bufEnd = lineNum
	}

	if hasBuf {
		emit()
	}

	return chunks
}
