package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// 每个工作日最多记录 12 个小时段，小时编号从 1 开始。
const (
	MinHour = 1
	MaxHour = 12
)

// 出勤状态。与小时数据相互独立，不由小时数据推导。
const (
	AttendancePresent = "PRESENT"
	AttendanceAbsent  = "ABSENT"
	AttendanceLate    = "LATE"
	AttendanceLeave   = "LEAVE"
)

// HourRecord 表示某个小时段的生产记录。
type HourRecord struct {
	Output        int    `json:"output"`                  // 该小时的产量
	QualityIssues int    `json:"qualityIssues,omitempty"` // 该小时发现的质量问题数
	Notes         string `json:"notes,omitempty"`
}

// HourMap 是小时编号 (1-12) 到该小时记录的映射。
type HourMap map[int]HourRecord

// TotalOutput 对所有已记录小时的产量求和。
// 这是 totalOutput 的唯一权威来源，永远重算，不单独维护。
func (m HourMap) TotalOutput() int {
	total := 0
	for _, rec := range m {
		total += rec.Output
	}
	return total
}

// ProductionEntry 表示表单内一个工人 + 包型/颜色/工序组合的生产条目。
// 小时数据以 JSON 字符串存储在 HourlyData 列中，通过 ParseHourlyData /
// SetHourlyData 访问。TotalOutput 冗余存储仅用于查询，写入时总是重算。
type ProductionEntry struct {
	ID               uint      `gorm:"primaryKey"`
	FormID           uint      `gorm:"index;not null"` // 所属表单 ID
	WorkerID         uint      `gorm:"index;not null"` // 条目归属的工人 (恰好一个)
	HandBagID        uint      `gorm:"index;not null"` // 包型
	BagColorID       uint      `gorm:"not null"`       // 颜色
	ProcessID        uint      `gorm:"not null"`       // 工序
	PlannedOutput    int       `gorm:"not null;default:0"`
	TotalOutput      int       `gorm:"not null;default:0"` // 所有小时产量之和 (重算得出)
	HourlyData       string    `gorm:"type:text"`          // HourMap 的 JSON 序列化
	AttendanceStatus string    `gorm:"size:20;not null;default:'PRESENT'"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`

	Issues []ProductionIssue `gorm:"foreignKey:EntryID"`
}

// ParseHourlyData 将 HourlyData 列解析为 HourMap。空列返回空 map。
func (e *ProductionEntry) ParseHourlyData() (HourMap, error) {
	hours := make(HourMap)
	if e.HourlyData == "" || e.HourlyData == "null" {
		return hours, nil
	}
	if err := json.Unmarshal([]byte(e.HourlyData), &hours); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hourly data for entry %d: %w", e.ID, err)
	}
	return hours, nil
}

// SetHourlyData 序列化 HourMap 写回 HourlyData 列，并同步重算 TotalOutput。
func (e *ProductionEntry) SetHourlyData(hours HourMap) error {
	bytes, err := json.Marshal(hours)
	if err != nil {
		return fmt.Errorf("failed to marshal hourly data: %w", err)
	}
	e.HourlyData = string(bytes)
	e.TotalOutput = hours.TotalOutput()
	return nil
}
