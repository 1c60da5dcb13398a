// Package database 提供 MySQL 连接、GORM 实例与表结构迁移。
package database

import (
	"orgdirectory/internal/model"
	"orgdirectory/pkg/log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

// DB 全局 GORM 数据库实例，在 InitMySQL 成功后可在业务层通过 database.DB 进行 CRUD 等操作。
var DB *gorm.DB

// NewGormConfig 返回项目统一的 GORM 配置：
//   - SQL 日志通过 zapgorm2 写入全局 zap logger
//   - TranslateError 打开后，唯一键冲突会被翻译为 gorm.ErrDuplicatedKey
func NewGormConfig() *gorm.Config {
	gormLogger := zapgorm2.New(log.GetLogger())
	gormLogger.LogLevel = logger.Warn
	gormLogger.SlowThreshold = 200 * time.Millisecond
	gormLogger.IgnoreRecordNotFoundError = true
	gormLogger.SetAsDefault()

	return &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}
}

// InitMySQL 根据 DSN 连接 MySQL 并初始化全局 DB。
// 会配置连接池（最大空闲连接数、最大打开连接数、连接最大存活时间），失败时调用 log.Fatal 退出进程。
func InitMySQL(dsn string) {
	var err error
	DB, err = gorm.Open(mysql.Open(dsn), NewGormConfig())
	if err != nil {
		log.Fatal("Failed to connect to MySQL", err)
	}
	log.Info("Connected to MySQL")

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("Failed to get SQL DB", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("MySQL initialized successfully")
}

// RunMigrate 对全局 DB 执行迁移。
func RunMigrate() error {
	return Migrate(DB)
}

// Migrate 按依赖顺序迁移所有表。测试中对 sqlite 内存库同样适用。
func Migrate(db *gorm.DB) error {
	log.Info("Running migrations...")

	if err := db.AutoMigrate(
		&model.Category{},
		&model.Organization{},
		&model.Tag{},
		&model.OrganizationTag{},
		&model.FeaturedPhoto{},
		&model.User{},
		&model.UserRole{},
		&model.Admin{},
		&model.AdminInvitation{},
		&model.ActivityLog{},
	); err != nil {
		log.Errorf("Failed to run migrations: %v", err)
		return err
	}

	log.Info("Migrations completed successfully")
	return nil
}
