package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

// UploadHandler 封装文件上传相关的 HTTP 处理逻辑。
type UploadHandler struct {
	uploadService *service.UploadService
}

// NewUploadHandler 创建 UploadHandler 实例
func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload 处理 multipart 文件上传请求 (POST /api/uploads)
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		logrus.WithError(err).Warn("Handler.Upload: Missing file in form data")
		ErrorResponse(c, http.StatusBadRequest, "Form field 'file' is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("Handler.Upload: Failed to open uploaded file")
		ErrorResponse(c, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}
	defer f.Close()

	upload, err := h.uploadService.Store(
		c.Request.Context(),
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		f,
	)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, upload)
}

// Get 处理下载请求 (GET /api/uploads/:id)，直接回传文件内容。
func (h *UploadHandler) Get(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	uploadID, ok := pathID(c, "id")
	if !ok {
		return
	}

	upload, err := h.uploadService.Get(c.Request.Context(), uploadID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.FileAttachment(upload.StoredPath, upload.FileName)
}

// ListMine 处理当前用户的上传记录列表请求 (GET /api/uploads)
func (h *UploadHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	uploads, err := h.uploadService.ListByUploader(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"uploads": uploads})
}
