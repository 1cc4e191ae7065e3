// Package storage is the persistence collaborator: it assigns ids, persists
// submitted bills, and serves the full per-user document sets that feed
// publications are built from.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"billtracker/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append persists a new bill for the user and returns its assigned id. The
// id is never client-generated once persisted.
func (r *SQLiteRepository) Append(ctx context.Context, userID string, e core.LedgerEntry) (string, error) {
	id := uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (id, user_id, title, amount_cents, type, note, date, attachment_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, e.Title, e.Amount.Cents, string(e.Type), e.Note,
		e.Date.UTC().Format(time.RFC3339Nano), e.AttachmentURL)
	if err != nil {
		return "", fmt.Errorf("insert bill: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"id", id,
		"user_id", userID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"type", e.Type)

	return id, nil
}

// ListByUser returns the user's full bill set, newest first. Entries sharing
// a date come back in insertion order so downstream stable sorts keep it.
func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, amount_cents, type, note, date, attachment_url
		 FROM bills WHERE user_id = ?
		 ORDER BY date DESC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var entries []core.LedgerEntry
	for rows.Next() {
		var (
			e       core.LedgerEntry
			typ     string
			rawDate string
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount.Cents, &typ, &e.Note, &rawDate, &e.AttachmentURL); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		e.Type = core.EntryType(typ)
		date, err := time.Parse(time.RFC3339Nano, rawDate)
		if err != nil {
			return nil, fmt.Errorf("parse bill date %q: %w", rawDate, err)
		}
		e.Date = date
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}

	return entries, nil
}

// ListUsers returns every user id with at least one bill. The periodic
// republisher uses it to know which feeds to refresh.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM bills ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}
