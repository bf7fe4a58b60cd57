package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// MigrateDB 迁移所有模型对应的表结构。
// users 表单独用原生 SQL 创建，规避 MySQL 对 TEXT 列索引长度的限制；
// 其余模型交给 AutoMigrate。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	if err := migrateUsersTable(db); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}

	err := db.AutoMigrate(
		&domain.Factory{},
		&domain.Line{},
		&domain.Team{},
		&domain.Group{},
		&domain.DigitalForm{},
		&domain.ProductionEntry{},
		&domain.ProductionIssue{},
		&domain.ProductionEvent{},
		&domain.Comment{},
		&domain.Post{},
		&domain.PostLike{},
		&domain.PostSave{},
		&domain.Upload{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// migrateUsersTable 创建或更新 users 表
func migrateUsersTable(db *gorm.DB) error {
	var count int64
	db.Raw("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'users'").Count(&count)

	if count == 0 {
		sql := `
		CREATE TABLE users (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(191) NOT NULL,
			password TEXT NOT NULL,
			full_name VARCHAR(191),
			role VARCHAR(50) NOT NULL DEFAULT 'worker',
			created_at DATETIME(3),
			updated_at DATETIME(3),
			UNIQUE INDEX idx_username (username)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci;
		`
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create users table: %w", err)
		}
		logrus.Info("Users table created successfully")
		return nil
	}

	// 表已存在，交给 AutoMigrate 补齐缺失的列和索引
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate user indexes: %w", err)
	}
	return nil
}
