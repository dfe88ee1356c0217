package db

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"

	"psgc_api_go/config"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the configured database and stores it in DB.
// A Turso URL wins over the local SQLite file.
func Initialize(cfg *config.Config) error {
	var err error
	if cfg.UsesTurso() {
		DB, err = OpenTurso(cfg.TursoDatabaseURL, cfg.TursoAuthToken, cfg.Environment)
	} else {
		DB, err = OpenSQLite(cfg.DBPath, cfg.Environment)
	}
	return err
}

// OpenSQLite opens a local SQLite file with WAL mode and foreign keys enabled
func OpenSQLite(dbPath string, environment string) (*gorm.DB, error) {
	dsn := dbPath + "?_journal_mode=WAL&_foreign_keys=1"

	conn, err := gorm.Open(sqlite.Open(dsn), gormConfig(environment))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established (WAL mode enabled)")
	return conn, nil
}

// OpenTurso opens a remote libsql database through the SQLite dialector
func OpenTurso(databaseURL, authToken, environment string) (*gorm.DB, error) {
	dsn, err := tursoDSN(databaseURL, authToken)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql connection: %w", err)
	}

	conn, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), gormConfig(environment))
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established (Turso)")
	return conn, nil
}

func tursoDSN(databaseURL, authToken string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid TURSO_DATABASE_URL: %w", err)
	}
	if authToken != "" {
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func gormConfig(environment string) *gorm.Config {
	// Determine log level based on environment
	logLevel := logger.Info
	if environment == "production" {
		logLevel = logger.Warn
	}
	return &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}
}

// AutoMigrate runs database migrations for the provided models
func AutoMigrate(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := DB.AutoMigrate(models...)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed")
	return nil
}

// WithoutForeignKeys runs fn on a single pinned connection with foreign key
// enforcement switched off, and switches it back on afterwards.
func WithoutForeignKeys(conn *gorm.DB, fn func(tx *gorm.DB) error) error {
	if conn.Dialector.Name() != "sqlite" {
		return fn(conn)
	}

	return conn.Connection(func(tx *gorm.DB) error {
		if err := tx.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
			return fmt.Errorf("failed to disable foreign keys: %w", err)
		}
		fnErr := fn(tx)
		if err := tx.Exec("PRAGMA foreign_keys = ON").Error; err != nil && fnErr == nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		return fnErr
	})
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
