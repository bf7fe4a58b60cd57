package domain

import "time"

// 生产层级: Factory -> Line -> Team -> Group。
// 每张数字表单 (DigitalForm) 都挂在这个四级层级的一个叶子节点上，
// 广播时沿着这条路径扇出。

// Factory 表示一个工厂。
type Factory struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"uniqueIndex:idx_factory_code,length:191;size:191;not null"` // 工厂编码，例如 "TS1"
	Name      string    `gorm:"size:191;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Line 表示工厂内的一条生产线。
type Line struct {
	ID        uint      `gorm:"primaryKey"`
	FactoryID uint      `gorm:"index;not null"`
	Code      string    `gorm:"size:191;not null"`
	Name      string    `gorm:"size:191;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Team 表示生产线内的一个班组。
type Team struct {
	ID        uint      `gorm:"primaryKey"`
	LineID    uint      `gorm:"index;not null"`
	Code      string    `gorm:"size:191;not null"`
	Name      string    `gorm:"size:191;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Group 表示班组内的一个小组，是层级的叶子节点。
type Group struct {
	ID        uint      `gorm:"primaryKey"`
	TeamID    uint      `gorm:"index;not null"`
	Code      string    `gorm:"size:191;not null"`
	Name      string    `gorm:"size:191;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// HierarchyPath 是一个条目解析出的 (factory, line, team, group) 路径，
// 作为广播扇出的目标集合。为 0 的字段视为缺失，广播时静默跳过。
type HierarchyPath struct {
	FactoryID uint `json:"factoryId,omitempty"`
	LineID    uint `json:"lineId,omitempty"`
	TeamID    uint `json:"teamId,omitempty"`
	GroupID   uint `json:"groupId,omitempty"`
}
