package db

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Connection holds the database connection
type Connection struct {
	DB     *sql.DB
	Driver string
}

// NewConnection creates a postgres connection from the PG* environment
func NewConnection() (*Connection, error) {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "nfhs")
	password := getEnvOrDefault("PGPASSWORD", "nfhs")
	dbname := getEnvOrDefault("PGDATABASE", "nfhs_dash")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	return Open(Postgres, dsn)
}

// Open connects to a postgres or sqlite database and verifies it answers
func Open(driver, dsn string) (*Connection, error) {
	switch driver {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == SQLite {
		// a single writer avoids SQLITE_BUSY on file databases
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
	}

	return &Connection{DB: db, Driver: driver}, nil
}

// Rebind rewrites ? placeholders for the connection's dialect
func (c *Connection) Rebind(query string) string {
	return Rebind(c.Driver, query)
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}

// Rebind rewrites ? placeholders as $1, $2, ... for postgres. Placeholders
// inside single-quoted literals are left alone.
func Rebind(driver, query string) string {
	if driver != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
