package initial

import (
	"fmt"
	"log"
	"os"
	"time"

	"StudyLink/internal/config"
	"StudyLink/internal/modules/rag/domain/knowledge"
	"StudyLink/pkg/zlog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB stays nil when MySQL is not configured; callers fall back to
// the in-memory raw store.
var GormDB *gorm.DB

func init() {
	conf := config.GetConfig()
	host := conf.MysqlConfig.Host
	if host == "" {
		zlog.Info("mysql not configured, skipping init")
		return
	}

	dbName := conf.MysqlConfig.DatabaseName
	if dbName == "" {
		dbName = conf.AppName
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.MysqlConfig.User, conf.MysqlConfig.Password, host, conf.MysqlConfig.Port, dbName)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		zlog.Fatal("mysql connect failed: " + err.Error())
		return
	}
	if err := db.AutoMigrate(&knowledge.RawUnit{}); err != nil {
		zlog.Fatal("mysql migrate failed: " + err.Error())
		return
	}
	GormDB = db
}
