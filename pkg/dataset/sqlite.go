package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const listingsSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	year INTEGER NOT NULL,
	mileage REAL NOT NULL CHECK (mileage >= 0),
	list_price REAL NOT NULL CHECK (list_price > 0),
	price REAL NOT NULL,
	condition TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_listings_year ON listings(year);
`

const selectListings = `SELECT year, mileage, list_price, price, condition FROM listings ORDER BY id`

// SQLiteSource stores listings in a SQLite database. The schema is created on open.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*SQLiteSource, error) {
	dsn := path
	if !strings.HasPrefix(path, ":memory:") {
		dsn = path + "?_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(listingsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Insert stores listings in a single transaction.
func (s *SQLiteSource) Insert(ctx context.Context, listings []Listing) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO listings (year, mileage, list_price, price, condition) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, l := range listings {
		if err := validate(l); err != nil {
			return fmt.Errorf("listing %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, l.Year, l.Mileage, l.ListPrice, l.Price, l.Condition); err != nil {
			return fmt.Errorf("failed to insert listing %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Load implements Source.
func (s *SQLiteSource) Load(ctx context.Context) ([]Listing, error) {
	rows, err := s.db.QueryContext(ctx, selectListings)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.Year, &l.Mileage, &l.ListPrice, &l.Price, &l.Condition); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}

	if len(listings) == 0 {
		return nil, ErrNoListings
	}
	return listings, nil
}
