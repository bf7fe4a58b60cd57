package domain

import (
	"fmt"
	"time"
)

// FormStatus 表示数字生产表单的生命周期状态。
type FormStatus string

// 表单状态流转: DRAFT -> PENDING -> (APPROVED | REJECTED) -> CONFIRMED。
// 只有 CONFIRMED 是终态，且只有 CONFIRMED 会锁定条目的小时数据编辑。
const (
	FormStatusDraft     FormStatus = "DRAFT"
	FormStatusPending   FormStatus = "PENDING"
	FormStatusApproved  FormStatus = "APPROVED"
	FormStatusRejected  FormStatus = "REJECTED"
	FormStatusConfirmed FormStatus = "CONFIRMED"
)

// validTransitions 列出每个状态允许的下一个状态。
var validTransitions = map[FormStatus][]FormStatus{
	FormStatusDraft:    {FormStatusPending},
	FormStatusPending:  {FormStatusApproved, FormStatusRejected},
	FormStatusApproved: {FormStatusConfirmed},
	FormStatusRejected: {FormStatusConfirmed},
	// CONFIRMED 是终态，没有出边
}

// CanTransitionTo 判断从当前状态能否流转到目标状态。
func (s FormStatus) CanTransitionTo(next FormStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal 判断状态是否为终态 (CONFIRMED)。
func (s FormStatus) IsTerminal() bool {
	return s == FormStatusConfirmed
}

// Valid 判断字符串是否是已知的表单状态。
func (s FormStatus) Valid() bool {
	switch s {
	case FormStatusDraft, FormStatusPending, FormStatusApproved, FormStatusRejected, FormStatusConfirmed:
		return true
	}
	return false
}

// DigitalForm 表示一张数字生产表单，记录某个小组某天的生产情况。
// 表单通过 FactoryID/LineID/TeamID/GroupID 解析出其层级路径，
// 该路径就是其下所有条目变更广播的扇出目标。
type DigitalForm struct {
	ID         uint       `gorm:"primaryKey"`
	FactoryID  uint       `gorm:"index;not null"`
	LineID     uint       `gorm:"index;not null"`
	TeamID     uint       `gorm:"index;not null"`
	GroupID    uint       `gorm:"index;not null"`
	Date       time.Time  `gorm:"type:date;index;not null"` // 表单对应的生产日期
	ShiftType  string     `gorm:"size:50;not null;default:'REGULAR'"`
	Status     FormStatus `gorm:"size:20;index;not null;default:'DRAFT'"`
	CreatedBy  uint       `gorm:"index;not null"` // 创建者用户 ID
	ApprovedBy *uint      `gorm:"index"`          // 审批者用户 ID (审批前为空)
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`

	Entries []ProductionEntry `gorm:"foreignKey:FormID"`
}

// Path 返回表单的层级广播路径。
func (f *DigitalForm) Path() HierarchyPath {
	return HierarchyPath{
		FactoryID: f.FactoryID,
		LineID:    f.LineID,
		TeamID:    f.TeamID,
		GroupID:   f.GroupID,
	}
}

// Transition 校验并应用一次状态流转，非法流转返回错误。
func (f *DigitalForm) Transition(next FormStatus) error {
	if !next.Valid() {
		return fmt.Errorf("unknown form status %q", next)
	}
	if !f.Status.CanTransitionTo(next) {
		return fmt.Errorf("cannot transition form from %s to %s", f.Status, next)
	}
	f.Status = next
	return nil
}
