package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDBFolderPath returns the directory holding the SQLite file.
func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("OUVIDORIA_DB_FOLDER")
	if dbFolderPath == "" {
		if IsDebug() {
			return "db"
		}
		dbFolderPath = "/etc/ouvidoria"
	}
	return dbFolderPath
}

// GetDBPath returns the SQLite file path. OUVIDORIA_DB_PATH overrides the
// folder based default.
func GetDBPath() string {
	if p := os.Getenv("OUVIDORIA_DB_PATH"); p != "" {
		return p
	}
	return filepath.Join(GetDBFolderPath(), fmt.Sprintf("%s.db", GetName()))
}
