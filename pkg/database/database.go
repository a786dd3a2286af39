package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Database wraps the SQL handle holding custom materials and exposure logs.
type Database struct {
	DB     *sql.DB  // The underlying SQL database connection
	X      *sqlx.DB // sqlx view over DB for struct scanning and placeholder rebinding
	Driver string   // Normalized driver name so SQL builders can stay declarative
}

// Config holds the configuration details for initializing the database.
type Config struct {
	DBType    string // sqlite, chai, genji, duckdb or pgx (PostgreSQL)
	DBPath    string // The file path to the database file (for file-based databases)
	DBConn    string // Raw DSN for pgx
	DBHost    string // The host for PostgreSQL
	DBPort    int    // The port for PostgreSQL
	DBUser    string // The user for PostgreSQL
	DBPass    string // The password for PostgreSQL
	DBName    string // The name of the PostgreSQL database
	PGSSLMode string // The SSL mode for PostgreSQL
	Port      int    // HTTP port, used in default database file names
}

// normalizeDBType trims and lowercases driver names so downstream switch
// blocks do not miss a dialect because of mixed case.
func normalizeDBType(dbType string) string {
	return strings.ToLower(strings.TrimSpace(dbType))
}

// dsnFor builds the driver DSN, defaulting file engines to a file next to the
// binary named after the HTTP port.
func dsnFor(cfg Config) (string, error) {
	driverName := normalizeDBType(cfg.DBType)
	switch driverName {
	case "sqlite", "chai", "genji", "duckdb":
		if cfg.DBPath != "" {
			return cfg.DBPath, nil
		}
		return fmt.Sprintf("shield-%d.%s", cfg.Port, driverName), nil
	case "pgx":
		if strings.TrimSpace(cfg.DBConn) != "" {
			return cfg.DBConn, nil
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.PGSSLMode), nil
	}
	return "", fmt.Errorf("unsupported database type: %s", cfg.DBType)
}

// NewDatabase opens DB and configures connection pooling.
// File engines run on a single connection (no concurrent DB access).
func NewDatabase(config Config) (*Database, error) {
	driverName := normalizeDBType(config.DBType)
	dsn, err := dsnFor(config)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening the database: %w", err)
	}

	switch driverName {
	case "sqlite", "chai", "genji", "duckdb":
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		if driverName == "sqlite" {
			tuneCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := tuneSQLiteConnection(tuneCtx, db, log.Printf); err != nil {
				log.Printf("sqlite tuning skipped: %v", err)
			}
			cancel()
		}
	case "pgx":
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(4)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	log.Printf("Using database driver: %s", driverName)

	return Wrap(db, driverName), nil
}

// Wrap adopts an already opened handle, for tests and embedding.
func Wrap(db *sql.DB, driverName string) *Database {
	driverName = normalizeDBType(driverName)
	return &Database{DB: db, X: sqlx.NewDb(db, driverName), Driver: driverName}
}

// Close releases the connection pool.
func (db *Database) Close() error {
	return db.DB.Close()
}

// tuneSQLiteConnection applies WAL/synchronous/busy pragmas one by one.
func tuneSQLiteConnection(ctx context.Context, db *sql.DB, logf func(string, ...any)) error {
	steps := []struct {
		label     string
		query     string
		expectRow bool
	}{
		{label: "journal_mode", query: "PRAGMA journal_mode=WAL;", expectRow: true},
		{label: "synchronous", query: "PRAGMA synchronous=NORMAL;"},
		{label: "busy_timeout", query: "PRAGMA busy_timeout=5000;"},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step.expectRow {
			var mode string
			if err := db.QueryRowContext(ctx, step.query).Scan(&mode); err != nil {
				return fmt.Errorf("apply %s: %w", step.label, err)
			}
			logf("SQLite tuning %s -> %s", step.label, mode)
			continue
		}
		if _, err := db.ExecContext(ctx, step.query); err != nil {
			return fmt.Errorf("apply %s: %w", step.label, err)
		}
	}
	return nil
}

// InitSchema creates the tables for the configured dialect.
func (db *Database) InitSchema(ctx context.Context) error {
	var statements []string

	switch db.Driver {
	case "pgx":
		statements = []string{
			`CREATE TABLE IF NOT EXISTS custom_materials (
  user_id        TEXT NOT NULL,
  name           TEXT NOT NULL,
  attenuation_ir DOUBLE PRECISION NOT NULL,
  attenuation_se DOUBLE PRECISION NOT NULL,
  updated_at     BIGINT NOT NULL,
  PRIMARY KEY (user_id, name)
)`,
			`CREATE TABLE IF NOT EXISTS exposures (
  id           TEXT PRIMARY KEY,
  user_id      TEXT NOT NULL,
  isotope      TEXT NOT NULL,
  activity_ci  DOUBLE PRECISION NOT NULL,
  collimator   INTEGER NOT NULL,
  distance_m   DOUBLE PRECISION NOT NULL,
  thickness_mm DOUBLE PRECISION NOT NULL,
  mu           DOUBLE PRECISION NOT NULL,
  duration_s   DOUBLE PRECISION NOT NULL,
  dose_rate    DOUBLE PRECISION NOT NULL,
  dose         DOUBLE PRECISION NOT NULL,
  created_at   BIGINT NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS summary_links (
  code       TEXT PRIMARY KEY,
  params     TEXT NOT NULL,
  created_at BIGINT NOT NULL
)`,
		}
	case "sqlite", "chai", "genji", "duckdb":
		statements = []string{
			`CREATE TABLE IF NOT EXISTS custom_materials (
  user_id        TEXT NOT NULL,
  name           TEXT NOT NULL,
  attenuation_ir DOUBLE NOT NULL,
  attenuation_se DOUBLE NOT NULL,
  updated_at     BIGINT NOT NULL,
  PRIMARY KEY (user_id, name)
)`,
			`CREATE TABLE IF NOT EXISTS exposures (
  id           TEXT PRIMARY KEY,
  user_id      TEXT NOT NULL,
  isotope      TEXT NOT NULL,
  activity_ci  DOUBLE NOT NULL,
  collimator   INTEGER NOT NULL,
  distance_m   DOUBLE NOT NULL,
  thickness_mm DOUBLE NOT NULL,
  mu           DOUBLE NOT NULL,
  duration_s   DOUBLE NOT NULL,
  dose_rate    DOUBLE NOT NULL,
  dose         DOUBLE NOT NULL,
  created_at   BIGINT NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS summary_links (
  code       TEXT PRIMARY KEY,
  params     TEXT NOT NULL,
  created_at BIGINT NOT NULL
)`,
		}
	default:
		return fmt.Errorf("unsupported database type: %s", db.Driver)
	}

	for _, stmt := range statements {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// EnsureIndexesAsync builds the exposure lookup index in the background so the
// listener comes up immediately. Busy/locked errors are retried with backoff.
func (db *Database) EnsureIndexesAsync(ctx context.Context, logf func(string, ...any)) {
	indexes := []struct{ name, sql string }{
		{"idx_exposures_user_created", `CREATE INDEX IF NOT EXISTS idx_exposures_user_created ON exposures (user_id, created_at)`},
		{"idx_summary_links_params", `CREATE INDEX IF NOT EXISTS idx_summary_links_params ON summary_links (params)`},
	}

	go func() {
		for _, it := range indexes {
			start := time.Now()
			backoff := 50 * time.Millisecond
			for {
				if ctx.Err() != nil {
					logf("index builder stopped: %v", ctx.Err())
					return
				}
				_, err := db.DB.ExecContext(ctx, it.sql)
				if err == nil {
					logf("index %s ready in %s", it.name, time.Since(start).Truncate(time.Millisecond))
					break
				}
				if !isBusy(err) || backoff > 5*time.Second {
					logf("index %s failed: %v", it.name, err)
					break
				}
				select {
				case <-ctx.Done():
				case <-time.After(backoff):
				}
				backoff *= 2
			}
		}
	}()
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy") || strings.Contains(msg, "busy")
}
