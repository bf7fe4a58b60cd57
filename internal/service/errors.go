package service

import "errors"

// 业务层错误。HTTP 层和网关层据此映射状态码 / 错误事件。
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username already exists")

	ErrFormNotFound      = errors.New("form not found")
	ErrInvalidTransition = errors.New("invalid form status transition")

	// 聚合器的状态错误: 变更被整体拒绝，不会有部分合并，也不会有广播
	ErrEntryNotFound     = errors.New("production entry not found")
	ErrEntryLocked       = errors.New("entry is locked: parent form is confirmed")
	ErrInvalidHour       = errors.New("hour must be between 1 and 12")
	ErrIssueNotFound     = errors.New("issue not found")
	ErrInvalidAttendance = errors.New("invalid attendance status")

	ErrCommentNotFound = errors.New("comment not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrForbidden       = errors.New("operation not allowed for this user")

	ErrUploadTooLarge    = errors.New("uploaded file exceeds size limit")
	ErrUploadBadType     = errors.New("uploaded file type is not allowed")
	ErrUploadNotFound    = errors.New("upload not found")

	ErrInternalServer = errors.New("internal server error")
)
