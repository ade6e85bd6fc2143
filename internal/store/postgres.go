package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps documents as JSONB rows keyed by (path, id). It exists
// for self-hosted deployments on NeonDB where Firestore is not an option; the
// query surface is the same equality/range filtering the services rely on.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the documents table on startup.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		path   TEXT NOT NULL,
		id     TEXT NOT NULL,
		fields JSONB NOT NULL DEFAULT '{}'::jsonb,
		PRIMARY KEY (path, id)
	)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, path, id string) (*Document, error) {
	var fields map[string]any
	err := s.db.QueryRow(ctx, `SELECT fields FROM documents WHERE path = $1 AND id = $2`, path, id).Scan(&fields)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return &Document{ID: id, Fields: fields}, nil
}

func (s *PostgresStore) Put(ctx context.Context, path, id string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document fields: %w", err)
	}

	query := `
	INSERT INTO documents (path, id, fields)
	VALUES ($1, $2, $3)
	ON CONFLICT (path, id) DO UPDATE SET fields = EXCLUDED.fields
	`
	if _, err := s.db.Exec(ctx, query, path, id, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, path, id string, fields map[string]any) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document fields: %w", err)
	}

	query := `UPDATE documents SET fields = fields || $3 WHERE path = $1 AND id = $2`
	result, err := s.db.Exec(ctx, query, path, id, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, path string, opts QueryOptions) ([]Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, fields FROM documents WHERE path = $1`)
	args := []any{path}

	for _, f := range opts.Filters {
		clause, arg, err := filterClause(f, len(args)+1)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" AND ")
		sb.WriteString(clause)
		args = append(args, arg)
	}

	if opts.OrderBy != "" {
		fmt.Fprintf(&sb, " ORDER BY fields->>%s", quoteLiteral(opts.OrderBy))
		if opts.Desc {
			sb.WriteString(" DESC")
		}
	} else {
		// Insertion order is not tracked; ctid keeps results deterministic.
		sb.WriteString(" ORDER BY ctid")
	}
	if opts.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", opts.Limit)
	}

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Fields); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		results = append(results, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return results, nil
}

func (s *PostgresStore) Delete(ctx context.Context, path, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM documents WHERE path = $1 AND id = $2`, path, id); err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return nil
}

// filterClause renders one filter against the JSONB column. Equality compares
// the JSON value; range comparisons cast through the value's natural type so
// timestamps and numbers order correctly.
func filterClause(f Filter, argPos int) (string, any, error) {
	field := quoteLiteral(f.Field)

	switch f.Op {
	case "==":
		payload, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode filter value: %w", err)
		}
		return fmt.Sprintf("fields->%s = $%d::jsonb", field, argPos), payload, nil
	case "<", "<=", ">", ">=":
		switch v := f.Value.(type) {
		case time.Time:
			return fmt.Sprintf("(fields->>%s)::timestamptz %s $%d", field, f.Op, argPos), v, nil
		case int, int64, float64:
			return fmt.Sprintf("(fields->>%s)::numeric %s $%d", field, f.Op, argPos), v, nil
		default:
			return fmt.Sprintf("fields->>%s %s $%d", field, f.Op, argPos), v, nil
		}
	}
	return "", nil, fmt.Errorf("unsupported filter op %q", f.Op)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
