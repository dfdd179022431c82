package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/contre95/vinylshelf/src/infra/database/migrations"
	"github.com/contre95/vinylshelf/src/vinyl"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SqliteStore is a SQLite implementation of vinyl.RecordSource. Every
// document is a JSON body in a single table keyed by (collection, id).
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore opens the database at path and applies migrations.
func NewSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Debug("SQLite store ready", "path", path)
	return &SqliteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to initialise migrate driver: %w", err)
	}
	sourceDriver, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	defer func() {
		_ = sourceDriver.Close()
	}()
	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// fieldExpr returns the SQL expression extracting a top-level JSON field.
func fieldExpr(field string) (string, error) {
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return fmt.Sprintf(`json_extract(body, '$."%s"')`, field), nil
}

// Scan returns an ordered page of documents strictly after q.After.
func (s *SqliteStore) Scan(ctx context.Context, q vinyl.ScanQuery) (vinyl.ScanResult, error) {
	if q.Limit <= 0 {
		return vinyl.ScanResult{}, fmt.Errorf("scan limit must be positive, got %d", q.Limit)
	}
	expr, err := fieldExpr(q.OrderBy)
	if err != nil {
		return vinyl.ScanResult{}, err
	}

	builder := sq.Select("id", "body", expr).
		From("documents").
		Where(sq.Eq{"collection": q.Collection})
	if q.After != nil {
		if q.After.Value() == nil {
			// NULL sorts first, so anything non-NULL is after the cursor.
			builder = builder.Where(sq.Or{
				sq.Expr(expr + " IS NOT NULL"),
				sq.And{sq.Expr(expr + " IS NULL"), sq.Gt{"id": q.After.ID()}},
			})
		} else {
			builder = builder.Where(sq.Or{
				sq.Expr(expr+" > ?", q.After.Value()),
				sq.And{sq.Expr(expr+" = ?", q.After.Value()), sq.Gt{"id": q.After.ID()}},
			})
		}
	}
	query, args, err := builder.OrderBy(expr, "id").Limit(uint64(q.Limit)).ToSql()
	if err != nil {
		return vinyl.ScanResult{}, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return vinyl.ScanResult{}, fmt.Errorf("scan %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var result vinyl.ScanResult
	for rows.Next() {
		var (
			id, body string
			key      any
		)
		if err := rows.Scan(&id, &body, &key); err != nil {
			return vinyl.ScanResult{}, err
		}
		result.Documents = append(result.Documents, vinyl.Document{ID: id, Data: json.RawMessage(body)})
		result.Next = vinyl.NewCursor(key, id)
	}
	return result, rows.Err()
}

// Get returns a single document or vinyl.ErrNotFound.
func (s *SqliteStore) Get(ctx context.Context, collection, id string) (vinyl.Document, error) {
	query, args, err := sq.Select("body").
		From("documents").
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return vinyl.Document{}, err
	}
	var body string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vinyl.Document{}, vinyl.ErrNotFound
		}
		return vinyl.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return vinyl.Document{ID: id, Data: json.RawMessage(body)}, nil
}

// All returns every document of a collection ordered by id.
func (s *SqliteStore) All(ctx context.Context, collection string) ([]vinyl.Document, error) {
	query, args, err := sq.Select("id", "body").
		From("documents").
		Where(sq.Eq{"collection": collection}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []vinyl.Document{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		docs = append(docs, vinyl.Document{ID: id, Data: json.RawMessage(body)})
	}
	return docs, rows.Err()
}

// Update sets the given top-level fields of a document, leaving the others
// untouched.
func (s *SqliteStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !fieldPattern.MatchString(k) {
			return fmt.Errorf("invalid field name %q", k)
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	set := "body"
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		value, err := json.Marshal(fields[k])
		if err != nil {
			return fmt.Errorf("encode field %s: %w", k, err)
		}
		set = fmt.Sprintf(`json_set(%s, '$."%s"', json(?))`, set, k)
		args = append(args, string(value))
	}

	query, qargs, err := sq.Update("documents").
		Set("body", sq.Expr(set, args...)).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, qargs...)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return vinyl.ErrNotFound
	}
	return nil
}

// Put inserts or replaces a document.
func (s *SqliteStore) Put(ctx context.Context, collection string, doc vinyl.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document in %s has no id", collection)
	}
	query, args, err := sq.Insert("documents").
		Columns("collection", "id", "body").
		Values(collection, doc.ID, string(doc.Data)).
		Suffix("ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}
