package persistence

import (
	"errors"
	"os"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
)

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv DATABASE_DRIVER (default mysql), DATABASE_URL
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	driverType := os.Getenv("DATABASE_DRIVER")
	if driverType == "" {
		driverType = "mysql"
	}
	driverArgs := os.Getenv("DATABASE_URL")
	if driverArgs == "" {
		return nil, errors.New("environment variable DATABASE_URL is not set")
	}
	return &DatabaseConfig{DriverType: driverType, DriverArgs: driverArgs}, nil
}

// PrepareMysqlDatabase create the target database if absent.
// driverArgs: user:pass@(host:port)/database?options
func PrepareMysqlDatabase(driverArgs string) error {
	dsnWithoutDatabase, databaseName, err := splitMysqlDatabase(driverArgs)
	if err != nil {
		return err
	}

	db, err := gorm.Open("mysql", dsnWithoutDatabase)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName +
		"` DEFAULT CHARACTER SET utf8mb4 DEFAULT COLLATE utf8mb4_general_ci").Error
}

func splitMysqlDatabase(driverArgs string) (string, string, error) {
	slash := strings.LastIndex(driverArgs, "/")
	if slash < 0 || slash == len(driverArgs)-1 {
		return "", "", errors.New("database name is absent in driver args")
	}
	database := driverArgs[slash+1:]
	if question := strings.Index(database, "?"); question >= 0 {
		database = database[:question]
	}
	if database == "" {
		return "", "", errors.New("database name is absent in driver args")
	}
	dsn := driverArgs[:slash+1]
	if question := strings.Index(driverArgs[slash+1:], "?"); question >= 0 {
		dsn += driverArgs[slash+1:][question:]
	}
	return dsn, database, nil
}
