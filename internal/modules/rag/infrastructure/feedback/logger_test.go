package feedback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"StudyLink/internal/modules/rag/domain/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTempLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feedback.jsonl")
	l, err := NewLogger(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, path
}

func TestAppendAndSnapshot(t *testing.T) {
	l, _ := newTempLogger(t)

	rec := &knowledge.FeedbackRecord{
		Query:         "what is osmosis",
		Context:       "osmosis is diffusion of water",
		Answer:        "movement of water across a membrane",
		AnswerRating:  0.9,
		ContextRating: 0.8,
	}
	require.NoError(t, l.Append(rec))

	recs, err := l.Snapshot()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, *rec, recs[0])
}

func TestConcurrentAppendsProduceWholeLines(t *testing.T) {
	const n = 100
	l, path := newTempLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := l.Append(&knowledge.FeedbackRecord{
				Query:         fmt.Sprintf("question %d", i),
				Context:       "ctx",
				Answer:        "ans",
				ContextRating: 0.5,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec knowledge.FeedbackRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec), "line %d is not valid JSON: %s", lines, sc.Text())
		lines++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, n, lines)
}

func TestAppendNeverRewritesEarlierLines(t *testing.T) {
	l, path := newTempLogger(t)
	require.NoError(t, l.Append(&knowledge.FeedbackRecord{Query: "first"}))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, l.Append(&knowledge.FeedbackRecord{Query: "second"}))
	after, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(before), string(after[:len(before)]))
}

func TestSnapshotSkipsMalformedLines(t *testing.T) {
	l, path := newTempLogger(t)
	require.NoError(t, l.Append(&knowledge.FeedbackRecord{Query: "good one"}))

	// Simulate a torn write from a crash.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"query\": \"torn")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	recs, err := l.Snapshot()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "good one", recs[0].Query)
}

func TestSnapshotMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.jsonl")
	l, err := NewLogger(path)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, os.Remove(path))

	recs, err := l.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, recs)
}
