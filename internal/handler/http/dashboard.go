package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

// DashboardHandler 封装看板查询相关的 HTTP 处理逻辑。
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler 实例
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetLine 处理生产线看板查询请求 (GET /api/dashboard/lines/:id)
func (h *DashboardHandler) GetLine(c *gin.Context) {
	lineID, ok := pathID(c, "id")
	if !ok {
		return
	}

	snapshot, err := h.dashboardService.GetLineSnapshot(c.Request.Context(), lineID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, snapshot)
}
