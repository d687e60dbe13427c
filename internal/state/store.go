package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a queried operation does not exist.
var ErrNotFound = errors.New("operation not found")

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

const (
	KindCommand = "command"
	KindService = "service"
)

// Operation is one recorded command execution or service operation.
type Operation struct {
	ID         string
	Kind       string // KindCommand or KindService
	Target     string // service name or executable path
	Action     string // start, stop, status, run, server-info
	Outcome    string // ok, timeout, not-found, exit-3, ...
	Result     string // the result string shown to the user
	Detail     map[string]string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store keeps operation history in SQLite or MySQL/MariaDB.
type Store struct {
	db *sql.DB
}

// Open opens the history database for driver ("sqlite" or "mysql") and
// creates the schema. For sqlite, dsn is a file path or ":memory:".
func Open(driver, dsn string) (*Store, error) {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = sqliteSchema
	case DriverMySQL:
		schema = mysqlSchema
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if driver == DriverSQLite {
		// WAL mode for better concurrent reads
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
		// SQLite handles one writer at a time
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenSQLite opens a SQLite history database at path.
func OpenSQLite(path string) (*Store, error) {
	return Open(DriverSQLite, path)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores op, assigning an ID if it has none.
func (s *Store) Record(ctx context.Context, op *Operation) error {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}
	detail, err := marshalJSON(op.Detail)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO operations (id, kind, target, action, outcome, result, detail, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.Kind, op.Target, op.Action, op.Outcome,
		nullString(op.Result), detail,
		op.StartedAt.UnixMilli(), op.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("recording %s %s: %w", op.Action, op.Target, err)
	}
	return nil
}

// Get retrieves an operation by ID.
func (s *Store) Get(ctx context.Context, id string) (*Operation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, target, action, outcome, result, detail, started_at, finished_at
		 FROM operations WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("getting operation %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanOperation(rows)
}

// List returns up to limit operations, newest first. An empty target lists
// all targets; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, target string, limit int) ([]*Operation, error) {
	query := `SELECT id, kind, target, action, outcome, result, detail, started_at, finished_at FROM operations`
	var args []any
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY started_at DESC, finished_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func scanOperation(rows *sql.Rows) (*Operation, error) {
	var op Operation
	var result, detail sql.NullString
	var startedAt, finishedAt int64

	err := rows.Scan(
		&op.ID, &op.Kind, &op.Target, &op.Action, &op.Outcome,
		&result, &detail, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	op.Result = result.String
	op.StartedAt = time.UnixMilli(startedAt)
	op.FinishedAt = time.UnixMilli(finishedAt)

	if detail.Valid && detail.String != "" {
		if err := json.Unmarshal([]byte(detail.String), &op.Detail); err != nil {
			return nil, fmt.Errorf("unmarshaling detail: %w", err)
		}
	}
	return &op, nil
}

func marshalJSON(m map[string]string) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshaling JSON: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
