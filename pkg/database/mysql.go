// Package database 负责初始化 MySQL 与 Redis 连接。
package database

import (
	"time"

	"mental-care-go/internal/model"
	"mental-care-go/pkg/log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitMySQL 初始化 MySQL 数据库连接并迁移表结构
func InitMySQL(dsn string) {
	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database", err)
	}

	// 配置连接池
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := AutoMigrate(DB); err != nil {
		log.Fatal("failed to migrate database", err)
	}
	log.Info("MySQL database connected successfully")
}

// AutoMigrate 创建或更新所有持久化表。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.ScoreEntry{}, &model.TranscriptMessage{})
}
