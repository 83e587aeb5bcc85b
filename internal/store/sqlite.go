// internal/store/sqlite.go
//
// SQLite-backed Gateway over the kv_store table. The table is created by
// the migrations in ./sql (see db.go at the repository root).
//
// Keys use '_' as a separator, which is a LIKE wildcard in SQL, so prefix
// scans escape the pattern explicitly.

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// sqlite persists key-value records in a kv_store table.
type sqlite struct {
	db *sql.DB
}

// NewSQLite constructs a Gateway over an opened SQLite database.
func NewSQLite(db *sql.DB) Gateway {
	return &sqlite{db: db}
}

func (s *sqlite) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_store WHERE key=?`, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *sqlite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO kv_store (key, value, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *sqlite) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key=?`, key)
	return err
}

func (s *sqlite) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv_store WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// escapeLike escapes LIKE wildcards in a literal prefix.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
