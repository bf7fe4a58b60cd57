package domain

import "time"

// 常见的生产问题类型。Type 字段不做枚举约束，保留为自由字符串，
// 这里只列出前端使用的约定值。
const (
	IssueTypeMaterial = "MATERIAL_SHORTAGE"
	IssueTypeMachine  = "MACHINE_BREAKDOWN"
	IssueTypeQuality  = "QUALITY_DEFECT"
	IssueTypeAbsent   = "WORKER_ABSENT"
	IssueTypeOther    = "OTHER"
)

// ProductionIssue 表示条目上登记的一个生产问题。
// ID 是调用方可见的不透明字符串 (UUID)，只要求在单个条目内唯一。
type ProductionIssue struct {
	ID          string    `gorm:"primaryKey;size:36"`
	EntryID     uint      `gorm:"index;not null"` // 所属条目
	Type        string    `gorm:"size:50;not null"`
	Hour        int       `gorm:"not null"` // 问题发生的小时段 (1-12)
	Impact      float64   `gorm:"not null;default:0"` // 对产量的影响百分比
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
