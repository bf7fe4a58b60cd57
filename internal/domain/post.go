package domain

import "time"

// Post 表示车间公告/动态帖子。
type Post struct {
	ID        uint      `gorm:"primaryKey"`
	AuthorID  uint      `gorm:"index;not null"`
	Title     string    `gorm:"size:191;not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// PostLike 表示用户对帖子的点赞。(post_id, user_id) 联合唯一，
// 点赞/取消点赞是集合语义。
type PostLike struct {
	ID        uint      `gorm:"primaryKey"`
	PostID    uint      `gorm:"uniqueIndex:idx_post_like,priority:1;not null"`
	UserID    uint      `gorm:"uniqueIndex:idx_post_like,priority:2;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// PostSave 表示用户收藏的帖子。
type PostSave struct {
	ID        uint      `gorm:"primaryKey"`
	PostID    uint      `gorm:"uniqueIndex:idx_post_save,priority:1;not null"`
	UserID    uint      `gorm:"uniqueIndex:idx_post_save,priority:2;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
