package chunk

import (
	"strings"
)

// SplitParagraphIntoChunks splits a paragraph into chunks of at most
// maxChunkSize bytes without splitting words. Words longer than the chunk
// size are hard-split. Text that is empty after trimming yields no chunks.
func SplitParagraphIntoChunks(paragraph string, maxChunkSize int) []string {
	paragraph = strings.TrimSpace(paragraph)
	if paragraph == "" {
		return nil
	}
	if len(paragraph) <= maxChunkSize {
		return []string{paragraph}
	}

	var chunks []string
	var currentChunk strings.Builder

	for _, word := range strings.Fields(paragraph) {
		if len(word) > maxChunkSize {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
				currentChunk.Reset()
			}
			for len(word) > maxChunkSize {
				chunks = append(chunks, word[:maxChunkSize])
				word = word[maxChunkSize:]
			}
			if word == "" {
				continue
			}
		}

		// +1 for the space separating the word from the current chunk.
		if currentChunk.Len() > 0 && currentChunk.Len()+len(word)+1 > maxChunkSize {
			chunks = append(chunks, currentChunk.String())
			currentChunk.Reset()
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString(" ")
		}
		currentChunk.WriteString(word)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}
