package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"StudyLink/internal/config"
	"StudyLink/pkg/xerr"
)

// HTTPTrainer drives an external fine-tuning service over a single
// synchronous POST. The service owns the model artifact lifecycle; we
// only receive the path of the trained result.
type HTTPTrainer struct {
	baseURL string
	hc      *http.Client
}

var _ Trainer = (*HTTPTrainer)(nil)

func NewHTTPTrainer(conf config.AITrainerConfig) (*HTTPTrainer, error) {
	base := strings.TrimRight(strings.TrimSpace(conf.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("trainer base url is empty")
	}
	timeout := time.Duration(conf.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &HTTPTrainer{
		baseURL: base,
		hc:      &http.Client{Timeout: timeout},
	}, nil
}

type trainRequest struct {
	Pairs     []TrainingPair `json:"pairs"`
	Epochs    int            `json:"epochs"`
	BatchSize int            `json:"batch_size"`
	OutputDir string         `json:"output_dir"`
}

type trainResponse struct {
	ModelPath string `json:"model_path"`
	Message   string `json:"message"`
}

func (t *HTTPTrainer) Train(ctx context.Context, pairs []TrainingPair, opts TrainOptions) (string, error) {
	body, err := json.Marshal(trainRequest{
		Pairs:     pairs,
		Epochs:    opts.Epochs,
		BatchSize: opts.BatchSize,
		OutputDir: opts.OutputDir,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/train", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", xerr.New(xerr.InternalServerError, fmt.Sprintf("trainer returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var tr trainResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return "", err
	}
	if tr.ModelPath == "" {
		return "", fmt.Errorf("trainer response missing model_path")
	}
	return tr.ModelPath, nil
}
