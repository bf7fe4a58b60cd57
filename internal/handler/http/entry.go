package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

// EntryHandler 封装生产条目相关的 HTTP 处理逻辑。
// 小时录入等变更走聚合器，与 WebSocket 入口共享同一套校验和广播。
type EntryHandler struct {
	formService *service.FormService
	aggregator  *service.Aggregator
}

// NewEntryHandler 创建 EntryHandler 实例
func NewEntryHandler(formService *service.FormService, aggregator *service.Aggregator) *EntryHandler {
	return &EntryHandler{formService: formService, aggregator: aggregator}
}

// CreateEntryRequest 定义创建条目请求的结构体
type CreateEntryRequest struct {
	WorkerID      uint `json:"workerId" binding:"required"`
	HandBagID     uint `json:"handBagId" binding:"required"`
	BagColorID    uint `json:"bagColorId" binding:"required"`
	ProcessID     uint `json:"processId" binding:"required"`
	PlannedOutput int  `json:"plannedOutput" binding:"omitempty,min=0"`
}

// Create 处理在表单下创建条目请求 (POST /api/forms/:id/entries)
func (h *EntryHandler) Create(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	formID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateEntry: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	entry, err := h.formService.CreateEntry(c.Request.Context(), formID, service.CreateEntryInput{
		WorkerID:      req.WorkerID,
		HandBagID:     req.HandBagID,
		BagColorID:    req.BagColorID,
		ProcessID:     req.ProcessID,
		PlannedOutput: req.PlannedOutput,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, entry)
}

// RecordHourRequest 定义小时录入请求的结构体
type RecordHourRequest struct {
	Hour             int    `json:"hour" binding:"required"`
	Output           int    `json:"output" binding:"min=0"`
	QualityIssues    int    `json:"qualityIssues" binding:"omitempty,min=0"`
	Notes            string `json:"notes" binding:"omitempty,max=500"`
	AttendanceStatus string `json:"attendanceStatus" binding:"omitempty,oneof=PRESENT ABSENT LATE LEAVE"`
}

// RecordHour 处理小时录入请求 (PUT /api/entries/:id/hours)
func (h *EntryHandler) RecordHour(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req RecordHourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.RecordHour: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	entry, err := h.aggregator.RecordHour(c.Request.Context(), userID, service.RecordHourInput{
		EntryID:          entryID,
		Hour:             req.Hour,
		Output:           req.Output,
		QualityIssues:    req.QualityIssues,
		Notes:            req.Notes,
		AttendanceStatus: req.AttendanceStatus,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, entry)
}

// AddIssueRequest 定义登记问题请求的结构体
type AddIssueRequest struct {
	Type        string  `json:"type" binding:"required,max=100"`
	Hour        int     `json:"hour" binding:"required"`
	Impact      float64 `json:"impact" binding:"omitempty,min=0"`
	Description string  `json:"description" binding:"omitempty,max=500"`
}

// AddIssue 处理登记问题请求 (POST /api/entries/:id/issues)
func (h *EntryHandler) AddIssue(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AddIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.AddIssue: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	issue, err := h.aggregator.AddIssue(c.Request.Context(), userID, service.AddIssueInput{
		EntryID:     entryID,
		Type:        req.Type,
		Hour:        req.Hour,
		Impact:      req.Impact,
		Description: req.Description,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, issue)
}

// RemoveIssue 处理删除问题请求 (DELETE /api/entries/:id/issues/:issueId)
func (h *EntryHandler) RemoveIssue(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}
	issueID := c.Param("issueId")
	if issueID == "" {
		ErrorResponse(c, http.StatusBadRequest, "Invalid issueId parameter")
		return
	}

	if err := h.aggregator.RemoveIssue(c.Request.Context(), userID, entryID, issueID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Issue removed"})
}

// UpdateAttendanceRequest 定义出勤状态更新请求的结构体
type UpdateAttendanceRequest struct {
	Status string `json:"status" binding:"required,oneof=PRESENT ABSENT LATE LEAVE"`
}

// UpdateAttendance 处理出勤状态更新请求 (PUT /api/entries/:id/attendance)
func (h *EntryHandler) UpdateAttendance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.UpdateAttendance: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	entry, err := h.aggregator.UpdateAttendanceStatus(c.Request.Context(), userID, entryID, req.Status)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, entry)
}
