package reportstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DBConfig carries the DB_* environment settings.
type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	// SQLitePath is used by the sqlite store kind.
	SQLitePath string
}

// DBConfigFromEnv reads DB_USER, DB_PASSWORD, DB_HOST, DB_PORT, DB_NAME
// and SQLITE_PATH.
func DBConfigFromEnv() DBConfig {
	return DBConfig{
		User:       os.Getenv("DB_USER"),
		Password:   os.Getenv("DB_PASSWORD"),
		Host:       os.Getenv("DB_HOST"),
		Port:       os.Getenv("DB_PORT"),
		Name:       os.Getenv("DB_NAME"),
		SQLitePath: os.Getenv("SQLITE_PATH"),
	}
}

func (c DBConfig) keyValueDSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// Open connects the store named by kind (pgx, postgres, sqlite or memory)
// and creates its schema. The returned func releases the connection.
func Open(ctx context.Context, kind string, c DBConfig) (Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "pgx":
		pool, err := pgxpool.New(ctx, DSN(c.User, c.Password, c.Host, c.Port, c.Name))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		s := NewPgxStore(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil
	case "postgres":
		return openSQL(ctx, "postgres", c.keyValueDSN(), "postgres")
	case "sqlite":
		path := c.SQLitePath
		if path == "" {
			path = "reports.db"
		}
		return openSQL(ctx, "sqlite", path, "sqlite")
	case "memory":
		return NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown REPORT_STORE %q (want pgx, postgres, sqlite or memory)", kind)
}

func openSQL(ctx context.Context, driver, dsn, dialect string) (Store, func(), error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s, err := NewSQLStore(db, dialect)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, func() { db.Close() }, nil
}
