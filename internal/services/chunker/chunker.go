// Package chunker splits document text into overlapping fragments for
// embedding. It is pure and deterministic: same input, same fragments.
package chunker

import (
	"strings"
)

// Chunker produces overlapping text fragments bounded by a character budget.
//
// The target size is a character budget; the overlap is a word count. The
// mixed units are deliberate and observable behavior - fragment boundaries
// feed the embedding store, and downstream consumers depend on them.
type Chunker struct {
	targetSize int // Max characters per fragment (joined with single spaces)
	overlap    int // Words carried from the end of one fragment into the next
}

// New creates a Chunker. Non-positive targetSize falls back to 1000
// characters, negative overlap to 0 words.
func New(targetSize, overlap int) *Chunker {
	if targetSize <= 0 {
		targetSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{
		targetSize: targetSize,
		overlap:    overlap,
	}
}

// Chunk splits text into fragments. Words are never split: a single word
// longer than the target size becomes its own one-word fragment. The last
// fragment, however short, is always emitted if non-empty.
//
// Each fragment starts at least one word past the previous fragment's start,
// so progress through the input is strictly increasing and the function
// terminates even when overlap is large relative to the target size.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var fragments []string
	var current []string
	currentLen := 0 // Joined length of current, including separating spaces
	start := 0      // Word index where the current fragment began

	for i := 0; i < len(words); i++ {
		word := words[i]

		wordLen := len(word)
		if len(current) > 0 {
			wordLen++ // Joining space
		}

		if len(current) > 0 && currentLen+wordLen > c.targetSize {
			fragments = append(fragments, strings.Join(current, " "))

			// Seed the next fragment with the trailing overlap words of
			// the one just closed, clamped so the new fragment starts
			// strictly after the previous start.
			seedFrom := i - c.overlap
			if seedFrom <= start {
				seedFrom = start + 1
			}
			if seedFrom > i {
				seedFrom = i
			}

			start = seedFrom
			current = current[:0]
			current = append(current, words[seedFrom:i]...)
			currentLen = len(strings.Join(current, " "))

			wordLen = len(word)
			if len(current) > 0 {
				wordLen++
			}
		}

		current = append(current, word)
		currentLen += wordLen
	}

	if len(current) > 0 {
		fragments = append(fragments, strings.Join(current, " "))
	}

	return fragments
}

// TargetSize returns the configured character budget per fragment.
func (c *Chunker) TargetSize() int {
	return c.targetSize
}

// Overlap returns the configured word overlap between fragments.
func (c *Chunker) Overlap() int {
	return c.overlap
}
