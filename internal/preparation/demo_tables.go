package preparation

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-viper/mapstructure/v2"

	"github.com/wpcheck/plugin-check/internal/environment"
)

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// demoTableSchemas is used for tables that have no live counterpart to copy.
// %s is replaced with the prefixed table name.
var demoTableSchemas = map[string]string{
	"options": `CREATE TABLE %s (
		option_id INTEGER PRIMARY KEY AUTOINCREMENT,
		option_name TEXT NOT NULL UNIQUE,
		option_value TEXT NOT NULL DEFAULT '',
		autoload TEXT NOT NULL DEFAULT 'yes'
	)`,
	"posts": `CREATE TABLE %s (
		ID INTEGER PRIMARY KEY AUTOINCREMENT,
		post_author INTEGER NOT NULL DEFAULT 0,
		post_title TEXT NOT NULL DEFAULT '',
		post_content TEXT NOT NULL DEFAULT '',
		post_status TEXT NOT NULL DEFAULT 'publish',
		post_type TEXT NOT NULL DEFAULT 'post'
	)`,
	"postmeta": `CREATE TABLE %s (
		meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL DEFAULT 0,
		meta_key TEXT,
		meta_value TEXT
	)`,
	"users": `CREATE TABLE %s (
		ID INTEGER PRIMARY KEY AUTOINCREMENT,
		user_login TEXT NOT NULL DEFAULT '',
		user_email TEXT NOT NULL DEFAULT ''
	)`,
	"usermeta": `CREATE TABLE %s (
		umeta_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL DEFAULT 0,
		meta_key TEXT,
		meta_value TEXT
	)`,
}

// DemoTables creates scratch copies of tables under the current (swapped)
// prefix so runtime checks never touch live data.
type DemoTables struct {
	store  *environment.Store
	tables []string
}

var _ Preparation = (*DemoTables)(nil)

// NewDemoTables returns a preparation creating the named tables.
func NewDemoTables(store *environment.Store, tables ...string) (*DemoTables, error) {
	if store == nil {
		return nil, errors.New("demo tables need a configured database")
	}
	if len(tables) == 0 {
		return nil, errors.New("no tables requested")
	}
	for _, t := range tables {
		if !tableNamePattern.MatchString(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
	}
	return &DemoTables{store: store, tables: tables}, nil
}

func newDemoTablesFromArgs(env *environment.Environment, args []any) (Preparation, error) {
	if env == nil {
		return nil, errors.New("demo tables need a configured environment")
	}
	var tables []string
	if err := mapstructure.Decode(args, &tables); err != nil {
		return nil, fmt.Errorf("decoding table names: %w", err)
	}
	return NewDemoTables(env.Store, tables...)
}

// Prepare creates each table that does not exist yet. Tables that already
// exist under the scratch prefix belong to an earlier preparation and are
// left alone by this one's cleanup.
func (d *DemoTables) Prepare(ctx context.Context) (Cleanup, error) {
	prefix := d.store.Prefix()
	base := d.store.BasePrefix()
	if prefix == base {
		return nil, fmt.Errorf("refusing to create demo tables under the live prefix %q", base)
	}

	db := d.store.DB()
	var created []string
	drop := func() error {
		var errs []error
		for i := len(created) - 1; i >= 0; i-- {
			if _, err := db.Exec(`DROP TABLE IF EXISTS ` + created[i]); err != nil {
				errs = append(errs, fmt.Errorf("dropping %s: %w", created[i], err))
			}
		}
		return errors.Join(errs...)
	}

	for _, t := range d.tables {
		scratch := prefix + t
		exists, err := d.store.TableExists(ctx, scratch)
		if err != nil {
			return nil, errors.Join(err, drop())
		}
		if exists {
			continue
		}

		live := base + t
		liveExists, err := d.store.TableExists(ctx, live)
		if err != nil {
			return nil, errors.Join(err, drop())
		}

		var stmt string
		switch {
		case liveExists:
			stmt = fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM %s`, scratch, live)
		case demoTableSchemas[t] != "":
			stmt = fmt.Sprintf(demoTableSchemas[t], scratch)
		default:
			return nil, errors.Join(fmt.Errorf("no schema for demo table %q", t), drop())
		}

		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, errors.Join(fmt.Errorf("creating %s: %w", scratch, err), drop())
		}
		created = append(created, scratch)
	}

	return drop, nil
}
