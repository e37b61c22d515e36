package rag

import "strings"

const (
	defaultChunkWords   = 600
	defaultOverlapWords = 100
)

// ChunkText splits a document into overlapping word-window chunks for
// ingestion. chunkWords/overlapWords of 0 use the defaults.
func ChunkText(text string, chunkWords, overlapWords int) []string {
	if chunkWords <= 0 {
		chunkWords = defaultChunkWords
	}
	if overlapWords < 0 || overlapWords >= chunkWords {
		overlapWords = defaultOverlapWords
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= chunkWords {
		return []string{strings.Join(words, " ")}
	}

	step := chunkWords - overlapWords
	var out []string
	for start := 0; start < len(words); start += step {
		end := start + chunkWords
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}
