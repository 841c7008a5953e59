package chunking

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmpty(t *testing.T) {
	c := NewChunker(10)
	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("   \n  "))
}

func TestChunkPacksParagraphs(t *testing.T) {
	c := NewChunker(6)
	text := "one two three\nfour five\nsix seven eight nine"
	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "one two three\nfour five", chunks[0])
	assert.Equal(t, "six seven eight nine", chunks[1])
}

// Each piece of the input appears exactly once across the chunks: no
// duplication, no loss.
func TestChunkNoDuplication(t *testing.T) {
	c := NewChunker(5)
	text := "a b c\nd e f\ng h i j k\nl m"
	chunks := c.Chunk(text)

	joined := strings.Fields(strings.Join(chunks, " "))
	assert.Equal(t, strings.Fields(strings.ReplaceAll(text, "\n", " ")), joined)
}

func TestChunkSplitsOversizedParagraph(t *testing.T) {
	c := NewChunker(3)
	chunks := c.Chunk("one two three four five six seven")
	require.Len(t, chunks, 3)
	assert.Equal(t, "one two three", chunks[0])
	assert.Equal(t, "four five six", chunks[1])
	assert.Equal(t, "seven", chunks[2])
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	c := NewChunker(100)
	chunks := c.Chunk("short text here")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text here", chunks[0])
}

func TestChunkDocumentsKeepsMetadata(t *testing.T) {
	c := NewChunker(3)
	docs, err := c.ChunkDocuments(context.Background(), []*schema.Document{
		{Content: "one two three four five", MetaData: map[string]any{"source": "a.txt"}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for i, d := range docs {
		assert.Equal(t, "a.txt", d.MetaData["source"])
		assert.Equal(t, i, d.MetaData["chunk_index"])
	}
}

func TestChunkDocumentsRecursive(t *testing.T) {
	c := NewRecursiveChunker(4)
	long := strings.Repeat("alpha beta gamma. ", 10)
	docs, err := c.ChunkDocuments(context.Background(), []*schema.Document{{Content: long}})
	require.NoError(t, err)
	require.Greater(t, len(docs), 1)
	for _, d := range docs {
		assert.NotEmpty(t, strings.TrimSpace(d.Content))
	}
}
