// Package chunker groups ordered text units into chunks bounded by a maximum
// character count, so downstream models never see more input than they
// accept.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Split greedily packs units into chunks of at most max characters (runes).
// Units inside a chunk are joined with a newline and each chunk is trimmed of
// surrounding whitespace. A unit that alone exceeds max becomes its own chunk
// and is never split. Unit order is preserved; empty chunks are dropped.
func Split(units []string, max int) []string {
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		currentLen = 0
	}

	for _, unit := range units {
		unitLen := utf8.RuneCountInString(unit)
		nextLen := unitLen
		if currentLen > 0 {
			nextLen += currentLen + 1
		}

		if currentLen > 0 && nextLen > max {
			flush()
			nextLen = unitLen
		}

		if currentLen > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(unit)
		currentLen = nextLen
	}
	flush()

	return chunks
}
