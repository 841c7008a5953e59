// Package refine turns rated feedback into training pairs and re-fits
// the embedding model, swapping the active version on success.
package refine

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/pkg/xerr"
	"StudyLink/pkg/zlog"

	"go.uber.org/zap"
)

// TrainingPair is one weak-supervision example: the target is the rated
// relevance of Context to Query, clamped to [0,1] for a cosine-style loss.
type TrainingPair struct {
	Query   string  `json:"query"`
	Context string  `json:"context"`
	Target  float64 `json:"target"`
}

// TrainOptions parameterize one fine-tuning run.
type TrainOptions struct {
	Epochs    int    `json:"epochs"`
	BatchSize int    `json:"batch_size"`
	OutputDir string `json:"output_dir"`
}

// Trainer fits a new model version from pairs and returns the artifact
// path of the result. Implementations are external collaborators.
type Trainer interface {
	Train(ctx context.Context, pairs []TrainingPair, opts TrainOptions) (modelPath string, err error)
}

// FeedbackSource supplies an immutable snapshot of logged feedback. The
// serving path and the refiner share nothing but this file-backed view.
type FeedbackSource interface {
	Snapshot() ([]knowledge.FeedbackRecord, error)
}

// SwapFunc installs the freshly trained artifact as the active model
// version. It runs only after training succeeded.
type SwapFunc func(ctx context.Context, modelPath, version string) error

// RefineResult summarizes one run.
type RefineResult struct {
	Records    int    `json:"records"`
	Pairs      int    `json:"pairs"`
	Version    string `json:"version"`
	ModelPath  string `json:"model_path"`
	DurationMs int64  `json:"duration_ms"`
}

// Refiner is exclusive with itself: at most one run at a time, enforced
// with a compare-and-swap flag. Queries and ingestion keep using the old
// version until the swap lands.
type Refiner struct {
	src     FeedbackSource
	trainer Trainer
	swap    SwapFunc
	opts    TrainOptions
	running atomic.Bool
}

func NewRefiner(src FeedbackSource, trainer Trainer, swap SwapFunc, opts TrainOptions) (*Refiner, error) {
	if src == nil {
		return nil, fmt.Errorf("feedback source is nil")
	}
	if trainer == nil {
		return nil, fmt.Errorf("trainer is nil")
	}
	if swap == nil {
		return nil, fmt.Errorf("swap func is nil")
	}
	if opts.Epochs <= 0 {
		opts.Epochs = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	return &Refiner{src: src, trainer: trainer, swap: swap, opts: opts}, nil
}

// Refine runs one full pass: snapshot, shape pairs, train, swap. A second
// caller while a run is active gets ErrRefineBusy immediately.
func (r *Refiner) Refine(ctx context.Context, seed int64) (*RefineResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, xerr.ErrRefineBusy
	}
	defer r.running.Store(false)

	start := time.Now()
	recs, err := r.src.Snapshot()
	if err != nil {
		return nil, err
	}
	pairs := BuildPairs(recs)
	if len(pairs) == 0 {
		return nil, xerr.New(xerr.BadRequest, "no usable feedback records")
	}
	ShufflePairs(pairs, seed)

	modelPath, err := r.trainer.Train(ctx, pairs, r.opts)
	if err != nil {
		return nil, err
	}
	version := fmt.Sprintf("ft-%s", time.Now().UTC().Format("20060102T150405"))
	if err := r.swap(ctx, modelPath, version); err != nil {
		return nil, err
	}

	res := &RefineResult{
		Records:    len(recs),
		Pairs:      len(pairs),
		Version:    version,
		ModelPath:  modelPath,
		DurationMs: time.Since(start).Milliseconds(),
	}
	zlog.Info("refinement run done",
		zap.Int("records", res.Records),
		zap.Int("pairs", res.Pairs),
		zap.String("version", res.Version),
		zap.String("model_path", res.ModelPath),
		zap.Int64("ms", res.DurationMs))
	return res, nil
}

// BuildPairs shapes feedback into (query, context, target) examples.
// Records without both texts are dropped; the context rating becomes the
// similarity target, clamped to [0,1].
func BuildPairs(recs []knowledge.FeedbackRecord) []TrainingPair {
	pairs := make([]TrainingPair, 0, len(recs))
	for _, rec := range recs {
		q := strings.TrimSpace(rec.Query)
		c := strings.TrimSpace(rec.Context)
		if q == "" || c == "" {
			continue
		}
		pairs = append(pairs, TrainingPair{
			Query:   q,
			Context: c,
			Target:  clamp01(rec.ContextRating),
		})
	}
	return pairs
}

// ShufflePairs permutes pairs in place with a seeded source so runs are
// reproducible.
func ShufflePairs(pairs []TrainingPair, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
