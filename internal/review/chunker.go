package review

import (
	"fmt"
	"strings"

	"github.com/dshills/codecheck/internal/diff"
)

// DefaultChunkBudget is the serialized-size ceiling for a chunk, in bytes.
const DefaultChunkBudget = 12000

// SplitFile splits one file's hunks into chunks whose serialized text stays
// under the budget. Hunks are accumulated whole; a line is never split. A
// single hunk whose own serialization exceeds the budget becomes a chunk of
// its own, flagged Oversized, rather than being dropped. Chunks preserve
// hunk order, so concatenating them reproduces the file's hunk sequence.
func SplitFile(f diff.File, budget int) []Chunk {
	if budget <= 0 {
		budget = DefaultChunkBudget
	}
	if len(f.Hunks) == 0 {
		return nil
	}

	// The rendered file header counts against the budget too, so a chunk's
	// final Text never lands just over the line.
	headerLen := len(renderChunk(f.Path, nil))

	var chunks []Chunk
	var run []diff.Hunk
	size := headerLen

	flush := func(oversized bool) {
		if len(run) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			File:      f.Path,
			Hunks:     run,
			Text:      renderChunk(f.Path, run),
			Oversized: oversized,
		})
		run = nil
		size = headerLen
	}

	for _, h := range f.Hunks {
		hs := len(h.String())
		if len(run) > 0 && size+hs > budget {
			flush(false)
		}
		if headerLen+hs > budget {
			// Alone it still exceeds the budget; emit as its own chunk.
			run = append(run, h)
			flush(true)
			continue
		}
		run = append(run, h)
		size += hs
	}
	flush(false)

	for i := range chunks {
		chunks[i].Index = i
		chunks[i].Total = len(chunks)
	}
	return chunks
}

// SplitFiles chunks every file, preserving file order. Files without hunks
// (binary markers, pure renames) produce no chunks.
func SplitFiles(files []diff.File, budget int) []Chunk {
	var chunks []Chunk
	for _, f := range files {
		chunks = append(chunks, SplitFile(f, budget)...)
	}
	return chunks
}

// renderChunk serializes a run of hunks as unified-diff text with file
// headers, so the model sees real diff syntax.
func renderChunk(path string, hunks []diff.Hunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", path, path)
	for _, h := range hunks {
		b.WriteString(h.String())
	}
	return b.String()
}
