// Package db archives aggregate-metric snapshots in Postgres.
package db

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/viper"

	"pokerunboard/logger"
)

// Pool defaults used when DB_MAX_* is unset or unparseable
const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
)

// DB is the snapshot archive
type DB struct {
	conn *sqlx.DB
	// Prepared statements cache
	stmtCache struct {
		sync.RWMutex
		statements map[string]*sqlx.Stmt
	}
}

// safeLogInfo logs through zap once the logger is up, otherwise via the standard log
func safeLogInfo(msg string, fields ...zap.Field) {
	if logger.GetLogger() != nil {
		logger.Info(msg, fields...)
	} else {
		log.Printf("%s", msg)
	}
}

// DSN builds the lib/pq connection string from the POSTGRES_* settings
func DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s port=%s host=%s sslmode=%s",
		viper.GetString("POSTGRES_USER"),
		viper.GetString("POSTGRES_PASSWORD"),
		viper.GetString("POSTGRES_DB"),
		viper.GetString("POSTGRES_PORT"),
		viper.GetString("POSTGRES_HOST"),
		sslMode(),
	)
}

func sslMode() string {
	if mode := viper.GetString("POSTGRES_SSLMODE"); mode != "" {
		return mode
	}
	return "disable"
}

// New connects to Postgres and sizes the pool from DB_MAX_OPEN_CONNS,
// DB_MAX_IDLE_CONNS and DB_CONN_MAX_LIFETIME.
func New() (*DB, error) {
	safeLogInfo("Connecting to snapshot archive",
		zap.String("host", viper.GetString("POSTGRES_HOST")),
		zap.String("database", viper.GetString("POSTGRES_DB")))

	conn, err := sqlx.Connect("postgres", DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseConnection, err)
	}

	maxOpenConns := defaultMaxOpenConns
	if viper.IsSet("DB_MAX_OPEN_CONNS") && viper.GetInt("DB_MAX_OPEN_CONNS") > 0 {
		maxOpenConns = viper.GetInt("DB_MAX_OPEN_CONNS")
	}

	maxIdleConns := defaultMaxIdleConns
	if viper.IsSet("DB_MAX_IDLE_CONNS") && viper.GetInt("DB_MAX_IDLE_CONNS") > 0 {
		maxIdleConns = viper.GetInt("DB_MAX_IDLE_CONNS")
	}

	connMaxLifetime := defaultConnMaxLifetime
	if val := viper.GetString("DB_CONN_MAX_LIFETIME"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			connMaxLifetime = parsed
		}
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(connMaxLifetime)

	database := wrap(conn)

	safeLogInfo("Snapshot archive connected",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return database, nil
}

func wrap(conn *sqlx.DB) *DB {
	database := &DB{conn: conn}
	database.stmtCache.statements = make(map[string]*sqlx.Stmt)
	return database
}

// getStmt returns a prepared statement from cache or creates a new one
func (db *DB) getStmt(ctx context.Context, query string) (*sqlx.Stmt, error) {
	db.stmtCache.RLock()
	stmt, exists := db.stmtCache.statements[query]
	db.stmtCache.RUnlock()

	if exists {
		return stmt, nil
	}

	db.stmtCache.Lock()
	defer db.stmtCache.Unlock()

	// Double-check after acquiring write lock
	if stmt, exists = db.stmtCache.statements[query]; exists {
		return stmt, nil
	}

	stmt, err := db.conn.PreparexContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	db.stmtCache.statements[query] = stmt
	return stmt, nil
}

// Close releases cached statements and the connection pool
func (db *DB) Close() error {
	db.stmtCache.Lock()
	for query, stmt := range db.stmtCache.statements {
		stmt.Close()
		delete(db.stmtCache.statements, query)
	}
	db.stmtCache.Unlock()

	return db.conn.Close()
}
