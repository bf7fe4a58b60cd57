package domain

import "time"

// 生产事件类型，对应聚合器的各个变更操作。
const (
	EventTypeHourRecorded     = "HOUR_RECORDED"
	EventTypeIssueAdded       = "ISSUE_ADDED"
	EventTypeIssueRemoved     = "ISSUE_REMOVED"
	EventTypeAttendanceUpdate = "ATTENDANCE_UPDATED"
)

// ProductionEvent 是聚合器每次成功变更后写入的审计记录。
// 写入走 asynq 后台队列，不在请求路径上阻塞。
type ProductionEvent struct {
	ID          uint      `gorm:"primaryKey"`
	EntryID     uint      `gorm:"index;not null"`
	UserID      uint      `gorm:"index;not null"` // 触发变更的用户
	EventType   string    `gorm:"size:50;not null"`
	Hour        int       `gorm:"not null;default:0"` // 仅对小时/问题事件有意义
	Output      int       `gorm:"not null;default:0"` // 本次写入的小时产量
	TotalOutput int       `gorm:"not null;default:0"` // 变更后的条目总产量
	Detail      string    `gorm:"type:text"`          // 事件附加信息 (JSON)
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}
