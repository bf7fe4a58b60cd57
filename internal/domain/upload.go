package domain

import "time"

// Upload 表示一次文件上传的记录，文件本体存储在磁盘上。
type Upload struct {
	ID          uint      `gorm:"primaryKey"`
	UploaderID  uint      `gorm:"index;not null"`
	FileName    string    `gorm:"size:255;not null"` // 原始文件名
	StoredPath  string    `gorm:"size:255;not null"` // 磁盘上的存储路径
	Size        int64     `gorm:"not null"`
	ContentType string    `gorm:"size:100"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
