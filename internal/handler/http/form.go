package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

// FormHandler 封装数字表单相关的 HTTP 处理逻辑。
type FormHandler struct {
	formService *service.FormService
}

// NewFormHandler 创建 FormHandler 实例
func NewFormHandler(formService *service.FormService) *FormHandler {
	return &FormHandler{formService: formService}
}

// CreateFormRequest 定义创建表单请求的结构体
type CreateFormRequest struct {
	FactoryID uint   `json:"factoryId" binding:"required"`
	LineID    uint   `json:"lineId" binding:"required"`
	TeamID    uint   `json:"teamId" binding:"required"`
	GroupID   uint   `json:"groupId" binding:"required"`
	Date      string `json:"date" binding:"omitempty"` // YYYY-MM-DD，缺省为当天
	ShiftType string `json:"shiftType" binding:"omitempty,oneof=REGULAR OVERTIME NIGHT"`
}

// Create 处理创建表单请求 (POST /api/forms)
func (h *FormHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.CreateForm: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	form, err := h.formService.CreateForm(c.Request.Context(), userID, service.CreateFormInput{
		FactoryID: req.FactoryID,
		LineID:    req.LineID,
		TeamID:    req.TeamID,
		GroupID:   req.GroupID,
		Date:      date,
		ShiftType: req.ShiftType,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, form)
}

// Get 处理获取表单详情请求 (GET /api/forms/:id)，返回表单及全部条目。
func (h *FormHandler) Get(c *gin.Context) {
	formID, ok := pathID(c, "id")
	if !ok {
		return
	}

	form, err := h.formService.GetFormWithEntries(c.Request.Context(), formID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, form)
}

// List 处理按生产线和日期列表请求 (GET /api/forms?lineId=&date=)
func (h *FormHandler) List(c *gin.Context) {
	lineID, err := strconv.ParseUint(c.Query("lineId"), 10, 32)
	if err != nil || lineID == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Query parameter lineId is required")
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	forms, err := h.formService.ListByLineAndDate(c.Request.Context(), uint(lineID), date)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"forms": forms})
}

// TransitionRequest 定义状态流转请求的结构体
type TransitionRequest struct {
	Status string `json:"status" binding:"required,oneof=DRAFT PENDING APPROVED REJECTED CONFIRMED"`
}

// Transition 处理表单状态流转请求 (POST /api/forms/:id/status)
func (h *FormHandler) Transition(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	formID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Transition: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	form, err := h.formService.TransitionStatus(c.Request.Context(), formID, userID, domain.FormStatus(req.Status))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, form)
}

// pathID 解析路径参数里的正整数 ID，非法时响应 400。
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}
