// Package chunking splits long note text into pieces small enough for
// the chat model's context window. It serves the summarization path, not
// retrieval ingestion, which has its own segmenters.
package chunking

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

// Chunker accumulates whitespace-delimited tokens up to MaxTokens and
// flushes each full chunk exactly once.
type Chunker struct {
	MaxTokens    int
	useRecursive bool

	initOnce      sync.Once
	initErr       error
	recursiveImpl document.Transformer
}

func NewChunker(maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	return &Chunker{MaxTokens: maxTokens}
}

// NewRecursiveChunker splits on paragraph and sentence boundaries first,
// falling back to token accumulation only when a sentence alone exceeds
// the budget.
func NewRecursiveChunker(maxTokens int) *Chunker {
	c := NewChunker(maxTokens)
	c.useRecursive = true
	return c
}

// Chunk splits text on paragraph boundaries, packing consecutive
// paragraphs into one chunk while they fit. A single oversized paragraph
// is split on token boundaries.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	var chunks []string
	var cur []string
	curTokens := 0

	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, "\n"))
			cur = nil
			curTokens = 0
		}
	}

	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		n := len(strings.Fields(para))
		if n > c.MaxTokens {
			flush()
			for _, piece := range splitByTokens(para, c.MaxTokens) {
				chunks = append(chunks, piece)
			}
			continue
		}
		if curTokens+n > c.MaxTokens {
			flush()
		}
		cur = append(cur, para)
		curTokens += n
	}
	flush()
	return chunks
}

func splitByTokens(text string, maxTokens int) []string {
	fields := strings.Fields(text)
	var out []string
	for start := 0; start < len(fields); start += maxTokens {
		end := start + maxTokens
		if end > len(fields) {
			end = len(fields)
		}
		out = append(out, strings.Join(fields[start:end], " "))
	}
	return out
}

// ChunkDocuments applies the configured strategy to eino documents,
// preserving metadata and tagging each fragment with its chunk index.
func (c *Chunker) ChunkDocuments(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error) {
	if len(docs) == 0 {
		return []*schema.Document{}, nil
	}

	if !c.useRecursive {
		out := make([]*schema.Document, 0, len(docs))
		for _, d := range docs {
			if d == nil {
				continue
			}
			for i, p := range c.Chunk(d.Content) {
				out = append(out, withMeta(d, p, i))
			}
		}
		return out, nil
	}

	c.initOnce.Do(func() {
		impl, err := recursive.NewSplitter(ctx, &recursive.Config{
			ChunkSize:   c.MaxTokens,
			OverlapSize: 0,
			Separators:  []string{"\n\n", "\n", ". ", " "},
			LenFunc: func(s string) int {
				return len(strings.Fields(s))
			},
			KeepType: recursive.KeepTypeEnd,
		})
		if err != nil {
			c.initErr = err
			return
		}
		c.recursiveImpl = impl
	})
	if c.initErr != nil {
		return nil, c.initErr
	}
	if c.recursiveImpl == nil {
		return nil, fmt.Errorf("recursive splitter not initialized")
	}

	out := make([]*schema.Document, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		frags, err := c.recursiveImpl.Transform(ctx, []*schema.Document{{Content: d.Content}})
		if err != nil {
			return nil, err
		}
		for i, f := range frags {
			if f == nil {
				continue
			}
			out = append(out, withMeta(d, f.Content, i))
		}
	}
	return out, nil
}

func withMeta(src *schema.Document, content string, idx int) *schema.Document {
	n := &schema.Document{Content: content, MetaData: map[string]any{}}
	for k, v := range src.MetaData {
		n.MetaData[k] = v
	}
	n.MetaData["chunk_index"] = idx
	return n
}
