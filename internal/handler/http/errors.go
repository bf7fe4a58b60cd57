package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

// HandleServiceError 把服务层业务错误映射为 HTTP 状态码。
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidHour),
		errors.Is(err, service.ErrInvalidAttendance),
		errors.Is(err, service.ErrUploadBadType):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrFormNotFound),
		errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrIssueNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrUploadNotFound),
		errors.Is(err, service.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEntryLocked):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		ErrorResponse(c, http.StatusRequestEntityTooLarge, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// currentUserID 从上下文取出 Auth 中间件写入的用户 ID。
// 取不到说明路由没有挂认证中间件，直接 401。
func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return 0, false
	}
	return id, true
}
