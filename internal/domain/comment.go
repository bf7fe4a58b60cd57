package domain

import "time"

// Comment 表示用户在表单上的评论。
type Comment struct {
	ID        uint      `gorm:"primaryKey"`
	FormID    uint      `gorm:"index;not null"`
	UserID    uint      `gorm:"index;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
