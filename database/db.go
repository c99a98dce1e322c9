// Package database opens the SQLite database and implements the record store
// on top of gorm.
package database

import (
	"errors"
	"io/fs"
	"os"
	"path"

	"github.com/cetep-lnab/ouvidoria/config"
	"github.com/cetep-lnab/ouvidoria/database/model"
	"github.com/cetep-lnab/ouvidoria/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

func initModels(conn *gorm.DB) error {
	models := []any{
		&model.User{},
		&model.Report{},
		&model.Response{},
		&model.Session{},
	}
	for _, m := range models {
		if err := conn.AutoMigrate(m); err != nil {
			logger.Errorf("Error auto migrating model: %v", err)
			return err
		}
	}
	return nil
}

// Open opens (creating if needed) the SQLite file at dbPath and migrates the
// schema. The returned handle is independent of the package level one.
func Open(dbPath string) (*gorm.DB, error) {
	dir := path.Dir(dbPath)
	if err := os.MkdirAll(dir, fs.ModePerm); err != nil {
		return nil, err
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	dsn := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	conn, err := gorm.Open(sqlite.Open(dsn), c)
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps the pragmas
	// below in effect for every statement.
	sqlDB.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA cache_size = -16000;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err = sqlDB.Exec(pragma); err != nil {
			return nil, err
		}
	}

	if err := initModels(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// InitDB opens the application database and keeps it for GetDB.
func InitDB(dbPath string) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	err := Close(db)
	db = nil
	return err
}

// Close checkpoints the WAL and closes conn.
func Close(conn *gorm.DB) error {
	if err := Checkpoint(conn); err != nil {
		logger.Warningf("error executing checkpoint: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func Checkpoint(conn *gorm.DB) error {
	return conn.Exec("PRAGMA wal_checkpoint;").Error
}
