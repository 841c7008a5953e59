package respond

import "StudyLink/internal/modules/rag/infrastructure/pipeline"

type IngestRespond struct {
	SourcePath   string `json:"source_path"`
	SourceType   string `json:"source_type"`
	Units        int    `json:"units"`
	Written      int    `json:"written"`
	Skipped      int    `json:"skipped"`
	Failed       int    `json:"failed"`
	Dangling     int    `json:"dangling"`
	ModelVersion string `json:"model_version"`
	DurationMs   int64  `json:"duration_ms"`
}

type AsyncIngestRespond struct {
	TaskID string `json:"task_id"`
}

type QueryRespond struct {
	QueryID         string                   `json:"query_id"`
	Question        string                   `json:"question"`
	TopK            int                      `json:"top_k"`
	Units           []pipeline.RetrievedUnit `json:"units"`
	DanglingSkipped int                      `json:"dangling_skipped"`
	ModelVersion    string                   `json:"model_version"`
	DurationMs      int64                    `json:"duration_ms"`
}

type AnswerRespond struct {
	QueryID    string                   `json:"query_id"`
	Question   string                   `json:"question"`
	Answer     string                   `json:"answer"`
	Context    string                   `json:"context"`
	Units      []pipeline.RetrievedUnit `json:"units"`
	DurationMs int64                    `json:"duration_ms"`
}

type RefineRespond struct {
	Records    int    `json:"records"`
	Pairs      int    `json:"pairs"`
	Version    string `json:"version"`
	ModelPath  string `json:"model_path"`
	DurationMs int64  `json:"duration_ms"`
}

type SummarizeRespond struct {
	Summary string `json:"summary"`
	Chunks  int    `json:"chunks"`
}
