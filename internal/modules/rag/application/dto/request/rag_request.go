package request

// IngestRequest carries one pre-parsed document. Blocks hold page/
// paragraph text for the block-oriented source types; Template and
// Records drive the templated type.
type IngestRequest struct {
	SourcePath  string           `json:"source_path" binding:"required"`
	SourceType  string           `json:"source_type" binding:"required"`
	Blocks      []string         `json:"blocks,omitempty"`
	Template    string           `json:"template,omitempty"`
	Records     []map[string]any `json:"records,omitempty"`
	RawIndex    string           `json:"raw_index,omitempty"`
	VectorIndex string           `json:"vector_index,omitempty"`
}

type QueryRequest struct {
	Question    string `json:"question" binding:"required"`
	TopK        int    `json:"top_k,omitempty"`
	RawIndex    string `json:"raw_index,omitempty"`
	VectorIndex string `json:"vector_index,omitempty"`
}

// AnswerRequest retrieves context for Question and forwards both to the
// answering model.
type AnswerRequest struct {
	Question    string `json:"question" binding:"required"`
	TopK        int    `json:"top_k,omitempty"`
	RawIndex    string `json:"raw_index,omitempty"`
	VectorIndex string `json:"vector_index,omitempty"`
}

type FeedbackRequest struct {
	Query         string  `json:"query" binding:"required"`
	Context       string  `json:"context"`
	Answer        string  `json:"answer"`
	AnswerRating  float64 `json:"answer_rating"`
	ContextRating float64 `json:"context_rating"`
}

// RefineRequest starts one refinement run. Seed fixes the training-pair
// shuffle; zero means derive one from the clock.
type RefineRequest struct {
	Seed int64 `json:"seed,omitempty"`
}

// SummarizeRequest condenses Text. Recursive selects boundary-aware
// splitting instead of plain paragraph packing.
type SummarizeRequest struct {
	Text      string `json:"text" binding:"required"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Recursive bool   `json:"recursive,omitempty"`
}
