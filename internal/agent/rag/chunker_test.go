package rag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestChunkText(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, ChunkText("", 0, 0))
		assert.Nil(t, ChunkText("   \n\t  ", 0, 0))
	})

	t.Run("short document stays whole", func(t *testing.T) {
		out := ChunkText(words(50), 0, 0)
		require.Len(t, out, 1)
		assert.Equal(t, 50, len(strings.Fields(out[0])))
	})

	t.Run("long document splits with overlap", func(t *testing.T) {
		out := ChunkText(words(1100), 0, 0)
		require.Len(t, out, 2)

		first := strings.Fields(out[0])
		second := strings.Fields(out[1])
		assert.Len(t, first, 600)
		// second window starts 500 words in, overlapping the first by 100
		assert.Equal(t, "w500", second[0])
		assert.Equal(t, first[500], second[0])
	})

	t.Run("custom sizes", func(t *testing.T) {
		out := ChunkText(words(25), 10, 2)
		require.NotEmpty(t, out)
		assert.Equal(t, 10, len(strings.Fields(out[0])))
		// last chunk ends exactly at the final word
		last := strings.Fields(out[len(out)-1])
		assert.Equal(t, "w24", last[len(last)-1])
	})

	t.Run("overlap larger than chunk falls back to default", func(t *testing.T) {
		out := ChunkText(words(400), 200, 300)
		require.NotEmpty(t, out)
		for _, c := range out {
			assert.LessOrEqual(t, len(strings.Fields(c)), 200)
		}
	})
}
