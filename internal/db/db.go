package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/gratefultolord/qabul_bot/internal/config"
)

type DB struct {
	Conn *sqlx.DB
}

// New connects to the store selected by cfg.Sink and creates the schema.
func New(cfg *config.Config) (*DB, error) {
	switch cfg.Sink {
	case config.SinkPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		return Open("postgres", dsn)
	case config.SinkSQLite:
		return Open("sqlite", cfg.SQLitePath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	default:
		return nil, fmt.Errorf("db.New: sink %q is not a database", cfg.Sink)
	}
}

func Open(driver, dsn string) (*DB, error) {
	dbConn, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db.Open: cannot connect to database: %w", err)
	}

	if driver == "sqlite" {
		dbConn.SetMaxOpenConns(1)
	} else {
		dbConn.SetMaxOpenConns(20)
		dbConn.SetMaxIdleConns(5)
	}
	dbConn.SetConnMaxLifetime(60 * time.Minute)

	db := &DB{Conn: dbConn}
	if err := db.Migrate(); err != nil {
		dbConn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) Migrate() error {
	_, err := db.Conn.Exec(`
	    CREATE TABLE IF NOT EXISTS registrations (
		    id           TEXT PRIMARY KEY,
		    full_name    TEXT NOT NULL,
		    phone_number TEXT NOT NULL,
		    region       TEXT NOT NULL,
		    direction    TEXT NOT NULL,
		    branch       TEXT NOT NULL,
		    submitted_at TIMESTAMP NOT NULL,
		    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("db.Migrate: %w", err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.Conn.Close()
}
