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

// AdminHandler hosts operational endpoints, currently only the manual
// refinement trigger.
type AdminHandler struct {
	refineSvc service.RefineService
}

func NewAdminHandler(refineSvc service.RefineService) *AdminHandler {
	return &AdminHandler{refineSvc: refineSvc}
}

// Refine handles POST /admin/refine. The body is optional; an empty one
// runs with a clock-derived shuffle seed.
func (h *AdminHandler) Refine(c *gin.Context) {
	var req request.RefineRequest
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			zlog.Error(err.Error())
			back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
			return
		}
	}
	data, err := h.refineSvc.Refine(c.Request.Context(), req)
	if err != nil {
		zlog.Warn("refine trigger failed", zap.Error(err))
	}
	back.Result(c, data, err)
}
