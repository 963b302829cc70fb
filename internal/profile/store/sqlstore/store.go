// Package sqlstore implements the storage adapter on SQL databases:
// embedded SQLite (modernc.org/sqlite) by default, PostgreSQL (lib/pq) for
// server deployments. Both share one schema and one query set.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
	"travelkeep/pkg/platform/sentinel"
	txcontext "travelkeep/pkg/platform/tx"
)

// Dialect selects placeholder style and migration set.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database. The schema must already be migrated.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// OpenSQLite opens (creating if needed) a SQLite database at path and
// applies migrations.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return open(ctx, db, DialectSQLite)
}

// OpenPostgres connects with a lib/pq DSN and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return open(ctx, db, DialectPostgres)
}

func open(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	if err := Migrate(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, d), nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFor(ctx, s.db)
}

const selectRecords = `SELECT entity_type, user_id, id, payload, updated_at FROM entities`

func (s *Store) Load(ctx context.Context, entityType models.EntityType, userID id.UserID) ([]models.Record, error) {
	rows, err := s.exec(ctx).QueryContext(ctx,
		s.rebind(selectRecords+` WHERE entity_type = ? AND user_id = ? ORDER BY id`),
		string(entityType), userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", entityType, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	var out []models.Record
	for rows.Next() {
		var (
			r         models.Record
			typ, user string
			updatedAt string
		)
		if err := rows.Scan(&typ, &user, &r.ID, &r.Payload, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		ts, err := store.ParseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("record %s/%s updated_at: %w", typ, r.ID, sentinel.ErrCorrupt)
		}
		r.Type, r.UserID, r.UpdatedAt = models.EntityType(typ), id.UserID(user), ts
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

const upsertRecord = `
	INSERT INTO entities (entity_type, user_id, id, payload, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (entity_type, user_id, id)
	DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

func (s *Store) Save(ctx context.Context, record models.Record) error {
	if err := store.ValidateRecord(record); err != nil {
		return err
	}
	return s.upsert(ctx, s.exec(ctx), record)
}

func (s *Store) upsert(ctx context.Context, ex txcontext.Executor, r models.Record) error {
	_, err := ex.ExecContext(ctx, s.rebind(upsertRecord),
		string(r.Type), r.UserID.String(), r.ID, r.Payload, store.FormatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save %s %s: %w", r.Type, r.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, entityType models.EntityType, userID id.UserID, recordID string) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		s.rebind(`DELETE FROM entities WHERE entity_type = ? AND user_id = ? AND id = ?`),
		string(entityType), userID.String(), recordID,
	)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", entityType, recordID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", entityType, recordID, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entityType, recordID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *Store) BatchLoad(ctx context.Context, userID id.UserID, types []models.EntityType) (map[models.EntityType][]models.Record, error) {
	out := make(map[models.EntityType][]models.Record, len(types))
	if len(types) == 0 {
		return out, nil
	}
	args := []any{userID.String()}
	marks := make([]string, 0, len(types))
	for _, t := range types {
		out[t] = nil
		args = append(args, string(t))
		marks = append(marks, "?")
	}
	query := selectRecords + ` WHERE user_id = ? AND entity_type IN (` + strings.Join(marks, ", ") + `) ORDER BY entity_type, id`
	rows, err := s.exec(ctx).QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("batch load: %w", err)
	}
	defer rows.Close()
	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		out[r.Type] = append(out[r.Type], r)
	}
	return out, nil
}

// BatchSave writes every record in one transaction.
func (s *Store) BatchSave(ctx context.Context, records []models.Record) error {
	for _, r := range records {
		if err := store.ValidateRecord(r); err != nil {
			return err
		}
	}
	if len(records) == 0 {
		return nil
	}
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		ex := s.exec(ctx)
		for _, r := range records {
			if err := s.upsert(ctx, ex, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) NeedsMigration(ctx context.Context, userID id.UserID) (bool, error) {
	var one int
	err := s.exec(ctx).QueryRowContext(ctx,
		s.rebind(`SELECT 1 FROM migration_state WHERE user_id = ?`), userID.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read migration state: %w", err)
	}
	return false, nil
}

func (s *Store) MarkMigrationComplete(ctx context.Context, userID id.UserID) error {
	_, err := s.exec(ctx).ExecContext(ctx,
		s.rebind(`INSERT INTO migration_state (user_id, completed_at) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`),
		userID.String(), store.FormatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("mark migration complete: %w", err)
	}
	return nil
}

var (
	_ store.Adapter   = (*Store)(nil)
	_ store.AuditSink = (*Store)(nil)
)
