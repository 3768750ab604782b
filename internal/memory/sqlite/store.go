package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/echoreply/echoreply/internal/memory"
)

// Store is a SQLite-backed memory.Store.
type Store struct {
	db          *sql.DB
	maxSnippets int
}

// Compile-time interface check.
var _ memory.Store = (*Store)(nil)

// Lookup returns the record for a username, or nil if unknown.
func (s *Store) Lookup(ctx context.Context, username string) (*memory.Record, error) {
	rec := &memory.Record{Username: username}

	var first, last string
	err := s.db.QueryRowContext(ctx,
		"SELECT first_contact, last_contact FROM users WHERE username = ?",
		username,
	).Scan(&first, &last)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: lookup user: %w", err)
	}

	if rec.FirstContact, err = time.Parse(time.RFC3339Nano, first); err != nil {
		return nil, fmt.Errorf("sqlite: parse first_contact %q: %w", first, err)
	}
	if rec.LastContact, err = time.Parse(time.RFC3339Nano, last); err != nil {
		return nil, fmt.Errorf("sqlite: parse last_contact %q: %w", last, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT direction, text, created_at
		FROM snippets
		WHERE username = ?
		ORDER BY id`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load snippets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			snip      memory.Snippet
			direction string
			createdAt string
		)
		if err := rows.Scan(&direction, &snip.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan snippet: %w", err)
		}
		snip.Direction = memory.Direction(direction)
		if snip.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: parse created_at %q: %w", createdAt, err)
		}
		rec.Snippets = append(rec.Snippets, snip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan snippets: %w", err)
	}

	return rec, nil
}

// Remember appends a snippet, creating the user row on first contact
// and trimming retention beyond maxSnippets.
func (s *Store) Remember(ctx context.Context, username string, snip memory.Snippet) error {
	if snip.CreatedAt.IsZero() {
		snip.CreatedAt = time.Now().UTC()
	}
	stamp := snip.CreatedAt.Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (username, first_contact, last_contact)
		VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET last_contact = excluded.last_contact`,
		username, stamp, stamp,
	); err != nil {
		return fmt.Errorf("sqlite: upsert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snippets (username, direction, text, created_at)
		VALUES (?, ?, ?, ?)`,
		username, string(snip.Direction), snip.Text, stamp,
	); err != nil {
		return fmt.Errorf("sqlite: insert snippet: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM snippets
		WHERE username = ? AND id NOT IN (
			SELECT id FROM snippets WHERE username = ? ORDER BY id DESC LIMIT ?
		)`,
		username, username, s.maxSnippets,
	); err != nil {
		return fmt.Errorf("sqlite: trim snippets: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Forget removes a user and all their snippets.
func (s *Store) Forget(ctx context.Context, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snippets WHERE username = ?", username); err != nil {
		return fmt.Errorf("sqlite: delete snippets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username); err != nil {
		return fmt.Errorf("sqlite: delete user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}
