package refine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"StudyLink/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTrainerTrain(t *testing.T) {
	var gotReq trainRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/train", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(trainResponse{ModelPath: "models/ft-42"})
	}))
	defer srv.Close()

	trainer, err := NewHTTPTrainer(config.AITrainerConfig{BaseURL: srv.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	pairs := []TrainingPair{{Query: "q", Context: "c", Target: 0.5}}
	path, err := trainer.Train(context.Background(), pairs, TrainOptions{Epochs: 1, BatchSize: 16, OutputDir: "models"})
	require.NoError(t, err)
	assert.Equal(t, "models/ft-42", path)
	assert.Equal(t, pairs, gotReq.Pairs)
	assert.Equal(t, 1, gotReq.Epochs)
	assert.Equal(t, 16, gotReq.BatchSize)
}

func TestHTTPTrainerNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cuda out of memory", http.StatusInternalServerError)
	}))
	defer srv.Close()

	trainer, err := NewHTTPTrainer(config.AITrainerConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = trainer.Train(context.Background(), nil, TrainOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cuda out of memory")
}

func TestHTTPTrainerMissingModelPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(trainResponse{Message: "ok but no path"})
	}))
	defer srv.Close()

	trainer, err := NewHTTPTrainer(config.AITrainerConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = trainer.Train(context.Background(), nil, TrainOptions{})
	assert.Error(t, err)
}

func TestNewHTTPTrainerEmptyURL(t *testing.T) {
	_, err := NewHTTPTrainer(config.AITrainerConfig{})
	assert.Error(t, err)
}
