package domain

import "time"

// User 表示系统用户（工人、组长、管理员等）。
type User struct {
	ID        uint      `gorm:"primaryKey"`                                            // 用户唯一标识符 (主键)
	Username  string    `gorm:"uniqueIndex:idx_username,length:191;size:191;not null"` // 登录名，必须唯一
	Password  string    `gorm:"type:text;not null"`                                    // bcrypt 哈希后的密码，绝不存储明文
	FullName  string    `gorm:"size:191"`                                              // 显示名称
	Role      string    `gorm:"size:50;not null;default:'worker'"`                     // 角色: worker / team_leader / manager / admin
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
