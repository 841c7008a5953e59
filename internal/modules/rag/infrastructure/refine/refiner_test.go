package refine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	recs []knowledge.FeedbackRecord
	err  error
}

func (s *staticSource) Snapshot() ([]knowledge.FeedbackRecord, error) {
	return s.recs, s.err
}

type fakeTrainer struct {
	mu      sync.Mutex
	pairs   []TrainingPair
	opts    TrainOptions
	block   chan struct{}
	path    string
	trainErr error
}

func (f *fakeTrainer) Train(ctx context.Context, pairs []TrainingPair, opts TrainOptions) (string, error) {
	f.mu.Lock()
	f.pairs = pairs
	f.opts = opts
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.trainErr != nil {
		return "", f.trainErr
	}
	if f.path == "" {
		return "models/ft-out", nil
	}
	return f.path, nil
}

func TestBuildPairsShapesAndClamps(t *testing.T) {
	recs := []knowledge.FeedbackRecord{
		{Query: "q1", Context: "c1", ContextRating: 0.7},
		{Query: "q2", Context: "c2", ContextRating: 1.5},  // clamped down
		{Query: "q3", Context: "c3", ContextRating: -0.2}, // clamped up
		{Query: "", Context: "c4", ContextRating: 0.5},    // dropped
		{Query: "q5", Context: "  ", ContextRating: 0.5},  // dropped
	}
	pairs := BuildPairs(recs)
	require.Len(t, pairs, 3)
	assert.Equal(t, TrainingPair{Query: "q1", Context: "c1", Target: 0.7}, pairs[0])
	assert.Equal(t, 1.0, pairs[1].Target)
	assert.Equal(t, 0.0, pairs[2].Target)
}

func TestShufflePairsSeeded(t *testing.T) {
	mk := func() []TrainingPair {
		out := make([]TrainingPair, 20)
		for i := range out {
			out[i] = TrainingPair{Query: string(rune('a' + i))}
		}
		return out
	}

	a, b := mk(), mk()
	ShufflePairs(a, 42)
	ShufflePairs(b, 42)
	assert.Equal(t, a, b)

	c := mk()
	ShufflePairs(c, 7)
	assert.NotEqual(t, a, c)
}

func TestRefineRunsTrainerAndSwaps(t *testing.T) {
	src := &staticSource{recs: []knowledge.FeedbackRecord{
		{Query: "q1", Context: "c1", ContextRating: 0.9},
		{Query: "q2", Context: "c2", ContextRating: 0.3},
	}}
	trainer := &fakeTrainer{path: "models/ft-123"}

	var swappedPath, swappedVersion string
	swap := func(ctx context.Context, modelPath, version string) error {
		swappedPath, swappedVersion = modelPath, version
		return nil
	}

	r, err := NewRefiner(src, trainer, swap, TrainOptions{Epochs: 2, BatchSize: 8, OutputDir: "models"})
	require.NoError(t, err)

	res, err := r.Refine(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, 2, res.Pairs)
	assert.Equal(t, "models/ft-123", res.ModelPath)
	assert.Equal(t, swappedVersion, res.Version)
	assert.Equal(t, "models/ft-123", swappedPath)
	assert.Equal(t, 2, trainer.opts.Epochs)
	assert.Equal(t, 8, trainer.opts.BatchSize)
	assert.Len(t, trainer.pairs, 2)
}

func TestRefineExclusive(t *testing.T) {
	src := &staticSource{recs: []knowledge.FeedbackRecord{
		{Query: "q", Context: "c", ContextRating: 0.5},
	}}
	trainer := &fakeTrainer{block: make(chan struct{})}
	r, err := NewRefiner(src, trainer, func(context.Context, string, string) error { return nil }, TrainOptions{})
	require.NoError(t, err)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := r.Refine(context.Background(), 1)
		done <- err
	}()
	<-started
	// Give the first run time to claim the flag before probing it.
	require.Eventually(t, func() bool {
		_, err := r.Refine(context.Background(), 2)
		return errors.Is(err, xerr.ErrRefineBusy)
	}, time.Second, 5*time.Millisecond)

	close(trainer.block)
	require.NoError(t, <-done)

	// After the run finishes another one may start.
	trainer.block = nil
	_, err = r.Refine(context.Background(), 3)
	require.NoError(t, err)
}

func TestRefineNoRecords(t *testing.T) {
	r, err := NewRefiner(&staticSource{}, &fakeTrainer{}, func(context.Context, string, string) error { return nil }, TrainOptions{})
	require.NoError(t, err)
	_, err = r.Refine(context.Background(), 1)
	assert.Error(t, err)
}

func TestRefineTrainerFailureSkipsSwap(t *testing.T) {
	src := &staticSource{recs: []knowledge.FeedbackRecord{
		{Query: "q", Context: "c", ContextRating: 0.5},
	}}
	trainer := &fakeTrainer{trainErr: errors.New("trainer down")}
	swapped := false
	r, err := NewRefiner(src, trainer, func(context.Context, string, string) error {
		swapped = true
		return nil
	}, TrainOptions{})
	require.NoError(t, err)

	_, err = r.Refine(context.Background(), 1)
	assert.Error(t, err)
	assert.False(t, swapped)
}
