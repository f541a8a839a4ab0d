// Package library implements the persisted unit store and the
// idempotent, content-addressed cache in front of it: a multi-driver
// database/sql handle behind one narrow, domain-specific query surface
// rather than a general-purpose Query/Execute/Transaction API — a
// library store never runs arbitrary caller SQL.
package library

import (
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/mod/semver"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"golang.org/x/exp/slices"

	"nvcfold/internal/ir"
	"nvcfold/internal/vcode"
)

// SchemaVersion is the vcode/table schema this evaluator writes and
// reads. Persisted rows from a newer schema are rejected rather than
// misread.
const SchemaVersion = "v1.0.0"

// Store is a persisted unit table reachable over any of the four
// database/sql backends registered above. The driver name selects both
// the sql.DB driver and this store's placeholder/DDL dialect.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn using driver ("sqlite", "postgres", "mysql", or
// "mssql" — the names database/sql's registered drivers use) and ensures
// the units table exists.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "library: open %s store", driver)
	}
	s := &Store{db: db, driver: driver}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS units (
		name TEXT PRIMARY KEY,
		kind INTEGER NOT NULL,
		schema_version TEXT NOT NULL,
		body TEXT NOT NULL
	)`)
	if err != nil {
		return errors.Wrap(err, "library: create units table")
	}
	return nil
}

// placeholder renders the driver-appropriate positional parameter marker
// (sqlite/mysql use "?", postgres uses "$n", mssql uses "@pn").
func (s *Store) placeholder(n int) string {
	switch s.driver {
	case "postgres":
		return fmt.Sprintf("$%d", n)
	case "mssql":
		return fmt.Sprintf("@p%d", n)
	default:
		return "?"
	}
}

// Put persists u under name, overwriting any existing row. Delete-then-
// insert rather than an upsert, since the four backends' upsert syntax
// (ON CONFLICT, ON DUPLICATE KEY, MERGE) doesn't share a common dialect.
func (s *Store) Put(name string, u *ir.Unit) error {
	body, err := vcode.Encode(u)
	if err != nil {
		return errors.Wrapf(err, "library: encode unit %q", name)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrapf(err, "library: begin persisting unit %q", name)
	}
	defer tx.Rollback()

	del := fmt.Sprintf(`DELETE FROM units WHERE name = %s`, s.placeholder(1))
	if _, err := tx.Exec(del, name); err != nil {
		return errors.Wrapf(err, "library: clear old row for unit %q", name)
	}
	ins := fmt.Sprintf(`INSERT INTO units (name, kind, schema_version, body) VALUES (%s, %s, %s, %s)`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))
	if _, err := tx.Exec(ins, name, int(u.Kind), SchemaVersion, body); err != nil {
		return errors.Wrapf(err, "library: persist unit %q", name)
	}
	return errors.Wrapf(tx.Commit(), "library: commit unit %q", name)
}

// Get loads the unit persisted under name, or ok=false if absent. A
// persisted row from an incompatible (newer) schema is reported as an
// error rather than silently misdecoded.
func (s *Store) Get(name string) (u *ir.Unit, ok bool, err error) {
	q := fmt.Sprintf(`SELECT schema_version, body FROM units WHERE name = %s`, s.placeholder(1))
	row := s.db.QueryRow(q, name)

	var storedVersion, body string
	if scanErr := row.Scan(&storedVersion, &body); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(scanErr, "library: load unit %q", name)
	}

	if semver.Compare(storedVersion, SchemaVersion) > 0 {
		return nil, false, fmt.Errorf("library: unit %q was written by schema %s, newer than this evaluator's %s", name, storedVersion, SchemaVersion)
	}

	u, decErr := vcode.Decode(body)
	if decErr != nil {
		return nil, false, errors.Wrapf(decErr, "library: decode unit %q", name)
	}
	return u, true, nil
}

// List returns every persisted unit name, ascending, for cmd/evalctl's
// `list` subcommand. Sorting happens on this side rather than via SQL
// ORDER BY, since collation rules differ enough across the four backends
// that relying on the database for a stable order isn't worth it.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM units`)
	if err != nil {
		return nil, errors.Wrap(err, "library: list units")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "library: scan unit name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// Close releases the underlying database/sql handle.
func (s *Store) Close() error {
	return s.db.Close()
}
