// Package feedback persists user judgments on answers as an append-only
// JSONL file. Records feed the embedding refinement loop.
package feedback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/pkg/zlog"

	"go.uber.org/zap"
)

// Logger appends one JSON object per line. A mutex serializes writers so
// each record lands as a single contiguous line even under concurrent
// callers; nothing ever rewrites earlier lines.
type Logger struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, fmt.Errorf("feedback log path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{path: path, f: f}, nil
}

// Append writes one record. The line is marshaled up front and written
// with a single Write call.
func (l *Logger) Append(rec *knowledge.FeedbackRecord) error {
	if rec == nil {
		return fmt.Errorf("nil feedback record")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	line := append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(line); err != nil {
		return err
	}
	return nil
}

// Snapshot reads every well-formed record currently in the log. Malformed
// lines (a torn write from a crash, manual edits) are counted and skipped
// so one bad line never blocks refinement.
func (l *Logger) Snapshot() ([]knowledge.FeedbackRecord, error) {
	l.mu.Lock()
	path := l.path
	l.mu.Unlock()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recs []knowledge.FeedbackRecord
	bad := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec knowledge.FeedbackRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			bad++
			continue
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if bad > 0 {
		zlog.Warn("skipped malformed feedback lines",
			zap.String("path", path),
			zap.Int("count", bad))
	}
	return recs, nil
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
