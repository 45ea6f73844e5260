package exec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/trellis/internal/dialect"
	"github.com/roach88/trellis/internal/rel"
	"github.com/roach88/trellis/internal/sqlgen"
)

// ErrNoValue reports a scalar fetch that came back empty where the
// expression promised exactly one value.
var ErrNoValue = errors.New("no value where exactly one expected")

// DB is a live connection for one target database.
type DB struct {
	db   *sql.DB
	prof dialect.Profile
	log  *zap.Logger
}

// drivers maps a dialect name to its database/sql driver.
var drivers = map[string]string{
	"postgres": "pgx",
	"sqlite":   "sqlite3",
	"mysql":    "mysql",
}

// Open connects to the target described by the profile.
//
// The pool is capped at a single connection: materialized snapshots
// live in session-local temporary tables, so every statement must
// ride the same session.
func Open(prof dialect.Profile, dsn string, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driver, ok := drivers[prof.Name]
	if !ok {
		return nil, rel.NewConfigError("no execution driver for the '%s' target", prof.Name)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if driver == "sqlite3" {
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	log.Debug("opened target",
		zap.String("dialect", prof.Name),
		zap.String("driver", driver))
	return &DB{db: db, prof: prof, log: log}, nil
}

// Close closes the connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	d.log.Debug("closing target", zap.String("dialect", d.prof.Name))
	return d.db.Close()
}

// Profile returns the dialect profile the connection was opened with.
func (d *DB) Profile() dialect.Profile {
	return d.prof
}

// Query evaluates a relation and returns all of its rows.
// Returns an empty slice (not nil) when the relation has no rows.
func (d *DB) Query(ctx context.Context, r *rel.Relation) ([][]any, error) {
	stmt, args, err := d.finalize(r.Code)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.Name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.Name, err)
	}

	out := [][]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.Name, err)
		}
		out = append(out, normalizeRow(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.Name, err)
	}
	return out, nil
}

// One evaluates a scalar expression and returns its value. An absent
// value is ErrNoValue when the expression promises exactly one row;
// otherwise NULL comes back as nil.
func (d *DB) One(ctx context.Context, e rel.Expr) (any, error) {
	v, ok, err := d.scalar(ctx, e)
	if err != nil {
		return nil, err
	}
	if !ok && e.Card == rel.CardExactlyOne {
		if _, isNull := e.Type.(rel.NullType); !isNull {
			return nil, ErrNoValue
		}
	}
	return v, nil
}

// MaybeOne evaluates a scalar expression tolerating absence: the bool
// reports whether a value was present.
func (d *DB) MaybeOne(ctx context.Context, e rel.Expr) (any, bool, error) {
	return d.scalar(ctx, e)
}

// IntScalar evaluates an integer scalar. The bool reports presence.
func (d *DB) IntScalar(ctx context.Context, e rel.Expr) (int64, bool, error) {
	stmt, args, err := d.finalize(e.Code)
	if err != nil {
		return 0, false, err
	}
	var v sql.NullInt64
	if err := d.db.QueryRowContext(ctx, "SELECT "+stmt, args...).Scan(&v); err != nil {
		return 0, false, fmt.Errorf("fetch scalar: %w", err)
	}
	return v.Int64, v.Valid, nil
}

// Count counts the rows of a relation.
func (d *DB) Count(ctx context.Context, r *rel.Relation) (int64, error) {
	stmt, args, err := d.finalize(r.Code)
	if err != nil {
		return 0, err
	}
	var n int64
	q := "SELECT count(*) FROM (" + stmt + ") AS counted"
	if err := d.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.Name, err)
	}
	return n, nil
}

// Materialize snapshots a relation into a session-local temporary
// table and returns a relation reading from it. Volatile expressions
// inside the input are evaluated exactly once.
func (d *DB) Materialize(ctx context.Context, r *rel.Relation) (*rel.Relation, error) {
	stmt, args, err := d.finalize(r.Code)
	if err != nil {
		return nil, err
	}
	name := "tmp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	ddl := "CREATE TEMPORARY TABLE " + name + " AS " + stmt
	if _, err := d.db.ExecContext(ctx, ddl, args...); err != nil {
		return nil, fmt.Errorf("materialize %s: %w", r.Name, err)
	}
	d.log.Debug("materialized snapshot",
		zap.String("relation", r.Name),
		zap.String("table", name))

	sel := ""
	for i, col := range r.Type.Columns {
		if i > 0 {
			sel += ", "
		}
		sel += d.prof.Quote(col.Name)
	}
	return &rel.Relation{
		Name: name,
		Type: r.Type,
		Code: sqlgen.Raw("SELECT " + sel + " FROM " + name),
	}, nil
}

// Commit commits the current transaction.
func (d *DB) Commit(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback rolls back the current transaction.
func (d *DB) Rollback(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, "ROLLBACK"); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// scalar runs SELECT <expr> and scans the single value.
func (d *DB) scalar(ctx context.Context, e rel.Expr) (any, bool, error) {
	stmt, args, err := d.finalize(e.Code)
	if err != nil {
		return nil, false, err
	}
	var v any
	if err := d.db.QueryRowContext(ctx, "SELECT "+stmt, args...).Scan(&v); err != nil {
		return nil, false, fmt.Errorf("fetch scalar: %w", err)
	}
	if v == nil {
		return nil, false, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	return v, true, nil
}

func (d *DB) finalize(f sqlgen.Fragment) (string, []any, error) {
	stmt, args, err := sqlgen.Finalize(f, d.prof.Numbered)
	if err != nil {
		return "", nil, err
	}
	return stmt, normalizeArgs(args), nil
}

// applyPragmas sets the SQLite connection options.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
