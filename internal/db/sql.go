package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// SQL is the database/sql-backed store. The same statements run against both
// drivers: `?` placeholders everywhere and all timestamps computed in Go and
// bound as parameters.
type SQL struct {
	db *sql.DB
}

// Open connects to the database named by rawURL. mysql:// URLs use the MySQL
// driver; anything else is treated as a SQLite file path (an optional
// sqlite:// prefix is stripped).
func Open(rawURL string) (*SQL, error) {
	driver, dsn, err := dataSource(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		slog.Error("database open failed", "driver", driver, "error", err)
		return nil, ErrConnect
	}
	if err := db.Ping(); err != nil {
		db.Close()
		slog.Error("database ping failed", "driver", driver, "error", err)
		return nil, ErrConnect
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	slog.Info("database opened", "driver", driver)
	return &SQL{db: db}, nil
}

// dataSource translates the configured URL into a (driver, dsn) pair.
func dataSource(rawURL string) (driver, dsn string, err error) {
	if !strings.HasPrefix(rawURL, "mysql://") {
		path := strings.TrimPrefix(rawURL, "sqlite://")
		return "sqlite3", path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing database url: %w", err)
	}
	host := u.Host
	if u.Port() == "" {
		host += ":3306"
	}
	user := u.User.Username()
	pass, _ := u.User.Password()
	name := strings.TrimPrefix(u.Path, "/")

	dsn = fmt.Sprintf("%s@tcp(%s)/%s?parseTime=true", user, host, name)
	if pass != "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", user, pass, host, name)
	}
	return "mysql", dsn, nil
}

// migrate creates the schema if it does not exist yet. Column types stay in
// the dialect both drivers accept.
func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			token VARCHAR(64),
			image VARCHAR(64),
			bio TEXT,
			creation_date DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sets (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			icon VARCHAR(64) NOT NULL,
			creation_date DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subsets (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			set_id VARCHAR(64) NOT NULL,
			creation_date DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memberships (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			set_id VARCHAR(64) NOT NULL,
			admin BOOLEAN NOT NULL,
			creation_date DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invites (
			id VARCHAR(64) PRIMARY KEY,
			set_id VARCHAR(64) NOT NULL,
			code VARCHAR(64) NOT NULL UNIQUE,
			creation_date DATETIME NOT NULL,
			expiry_date DATETIME,
			uses BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id VARCHAR(64) PRIMARY KEY,
			content TEXT NOT NULL,
			subset VARCHAR(64) NOT NULL,
			sender VARCHAR(64) NOT NULL,
			attachment VARCHAR(64),
			send_time DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			content LONGBLOB NOT NULL,
			owner VARCHAR(64) NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQL) Begin() (Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("transaction begin failed", "error", err)
		return nil, ErrBegin
	}
	return &sqlTx{tx: tx}, nil
}

func (s *SQL) Ping() error {
	if err := s.db.Ping(); err != nil {
		return ErrConnect
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		slog.Error("transaction commit failed", "error", err)
		return ErrCommit
	}
	return nil
}

func (t *sqlTx) Rollback() error {
	return t.tx.Rollback()
}
