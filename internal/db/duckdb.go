package db

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
)

// Open creates a fresh in-memory DuckDB with the history schema. Nothing is
// written to disk; the data disappears with the process.
func Open() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	db.SetMaxOpenConns(1) // DuckDB works best with single connection
	db.SetMaxIdleConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id VARCHAR PRIMARY KEY,
			ts BIGINT NOT NULL,
			seq BIGINT NOT NULL,
			type VARCHAR NOT NULL,
			content VARCHAR NOT NULL,
			analysis VARCHAR,
			generated_content VARCHAR,
			topic VARCHAR
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
