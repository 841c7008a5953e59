package http

import (
	"StudyLink/internal/modules/rag/application/dto/request"
	"StudyLink/internal/modules/rag/application/service"
	"StudyLink/pkg/back"
	"StudyLink/pkg/xerr"
	"StudyLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RagHandler exposes the pipeline over HTTP: ingest, query, answer,
// feedback, summarize.
type RagHandler struct {
	ingestSvc    service.IngestService
	querySvc     service.QueryService
	answerSvc    service.AnswerService
	feedbackSvc  service.FeedbackService
	summarizeSvc service.SummarizeService
}

func NewRagHandler(
	ingestSvc service.IngestService,
	querySvc service.QueryService,
	answerSvc service.AnswerService,
	feedbackSvc service.FeedbackService,
	summarizeSvc service.SummarizeService,
) *RagHandler {
	return &RagHandler{
		ingestSvc:    ingestSvc,
		querySvc:     querySvc,
		answerSvc:    answerSvc,
		feedbackSvc:  feedbackSvc,
		summarizeSvc: summarizeSvc,
	}
}

// Ingest handles POST /rag/ingest.
func (h *RagHandler) Ingest(c *gin.Context) {
	var req request.IngestRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.ingestSvc.Ingest(c.Request.Context(), req)
	if err != nil {
		zlog.Warn("ingest failed", zap.String("source_path", req.SourcePath), zap.Error(err))
	}
	back.Result(c, data, err)
}

// IngestAsync handles POST /rag/ingest/async.
func (h *RagHandler) IngestAsync(c *gin.Context) {
	var req request.IngestRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.ingestSvc.IngestAsync(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Query handles POST /rag/query.
func (h *RagHandler) Query(c *gin.Context) {
	var req request.QueryRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.querySvc.Query(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Answer handles POST /rag/answer.
func (h *RagHandler) Answer(c *gin.Context) {
	var req request.AnswerRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.answerSvc.Answer(c.Request.Context(), req)
	back.Result(c, data, err)
}

// Feedback handles POST /rag/feedback.
func (h *RagHandler) Feedback(c *gin.Context) {
	var req request.FeedbackRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	err := h.feedbackSvc.Log(c.Request.Context(), req)
	back.Result(c, nil, err)
}

// Summarize handles POST /rag/summarize.
func (h *RagHandler) Summarize(c *gin.Context) {
	var req request.SummarizeRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.summarizeSvc.Summarize(c.Request.Context(), req)
	back.Result(c, data, err)
}
