package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect selects placeholder syntax for the SQL table source.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// DialectOf maps a database/sql driver name to its dialect.
func DialectOf(driver string) (Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "pgx", "postgres":
		return Postgres, nil
	}
	return 0, fmt.Errorf("unsupported sql driver %q", driver)
}

// rebind rewrites ? placeholders for the dialect.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS datasets (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		schema_version TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS domain_values (
		dataset TEXT NOT NULL,
		domain TEXT NOT NULL,
		position INTEGER NOT NULL,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS table_defs (
		dataset TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		description TEXT NOT NULL,
		column_name TEXT NOT NULL,
		single INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cells (
		dataset TEXT NOT NULL,
		table_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		row_key TEXT NOT NULL,
		col_key TEXT NOT NULL,
		num DOUBLE PRECISION,
		txt TEXT
	)`,
}

// CreateSchema creates the dataset tables if they do not exist.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// WriteSQL stores b, replacing any dataset with the same name.
func WriteSQL(ctx context.Context, db *sql.DB, d Dialect, b *Book) (err error) {
	if err := CreateSchema(ctx, db); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exec := func(query string, args ...interface{}) error {
		_, err := tx.ExecContext(ctx, d.rebind(query), args...)
		return err
	}
	for _, table := range []string{"datasets", "domain_values", "table_defs", "cells"} {
		column := "dataset"
		if table == "datasets" {
			column = "name"
		}
		if err = exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, column), b.name); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if err = exec("INSERT INTO datasets (name, description, schema_version) VALUES (?, ?, ?)", b.name, b.description, b.schema.String()); err != nil {
		return fmt.Errorf("inserting dataset: %w", err)
	}
	for _, dom := range b.Domains() {
		for i, v := range dom.Values() {
			if err = exec("INSERT INTO domain_values (dataset, domain, position, value) VALUES (?, ?, ?, ?)", b.name, dom.Name(), i, v); err != nil {
				return fmt.Errorf("inserting domain %q: %w", dom.Name(), err)
			}
		}
	}
	for i, t := range b.Tables() {
		single := 0
		if t.Single() {
			single = 1
		}
		if err = exec("INSERT INTO table_defs (dataset, name, position, description, column_name, single) VALUES (?, ?, ?, ?, ?, ?)",
			b.name, t.Name(), i, t.Description(), t.Column(), single); err != nil {
			return fmt.Errorf("inserting table %q: %w", t.Name(), err)
		}
		pos := 0
		t.Each(func(row, col string, c Cell) {
			if err != nil {
				return
			}
			var num sql.NullFloat64
			var txt sql.NullString
			if v, ok := c.Float(); ok {
				num = sql.NullFloat64{Float64: v, Valid: true}
			} else {
				txt = sql.NullString{String: c.Text(), Valid: true}
			}
			err = exec("INSERT INTO cells (dataset, table_name, position, row_key, col_key, num, txt) VALUES (?, ?, ?, ?, ?, ?, ?)",
				b.name, t.Name(), pos, row, col, num, txt)
			pos++
		})
		if err != nil {
			return fmt.Errorf("inserting cells of %q: %w", t.Name(), err)
		}
	}
	return tx.Commit()
}

// FromSQL loads the dataset called name.
func FromSQL(ctx context.Context, db *sql.DB, d Dialect, name string) (*Book, error) {
	b := NewBook(name)
	var description, version string
	err := db.QueryRowContext(ctx, d.rebind("SELECT description, schema_version FROM datasets WHERE name = ?"), name).Scan(&description, &version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("dataset %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading dataset %q: %w", name, err)
	}
	b.SetDescription(description)
	if err := b.SetSchema(version); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, d.rebind("SELECT domain, value FROM domain_values WHERE dataset = ? ORDER BY domain, position"), name)
	if err != nil {
		return nil, fmt.Errorf("reading domains of %q: %w", name, err)
	}
	var order []string
	values := make(map[string][]string)
	for rows.Next() {
		var dom, v string
		if err := rows.Scan(&dom, &v); err != nil {
			rows.Close()
			return nil, err
		}
		if _, ok := values[dom]; !ok {
			order = append(order, dom)
		}
		values[dom] = append(values[dom], v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, dom := range order {
		domain, err := NewDomain(dom, values[dom]...)
		if err != nil {
			return nil, err
		}
		if err := b.AddDomain(domain); err != nil {
			return nil, err
		}
	}

	defs, err := db.QueryContext(ctx, d.rebind("SELECT name, description, column_name, single FROM table_defs WHERE dataset = ? ORDER BY position"), name)
	if err != nil {
		return nil, fmt.Errorf("reading tables of %q: %w", name, err)
	}
	var tables []*Table
	for defs.Next() {
		var tname, tdesc, column string
		var single int
		if err := defs.Scan(&tname, &tdesc, &column, &single); err != nil {
			defs.Close()
			return nil, err
		}
		t := NewTable(tname)
		if single == 1 {
			t = NewSeries(tname, column)
		}
		t.SetDescription(tdesc)
		tables = append(tables, t)
	}
	defs.Close()
	if err := defs.Err(); err != nil {
		return nil, err
	}

	for _, t := range tables {
		if err := readCells(ctx, db, d, name, t); err != nil {
			return nil, err
		}
		if err := b.AddTable(t); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func readCells(ctx context.Context, db *sql.DB, d Dialect, dataset string, t *Table) error {
	rows, err := db.QueryContext(ctx, d.rebind("SELECT row_key, col_key, num, txt FROM cells WHERE dataset = ? AND table_name = ? ORDER BY position"), dataset, t.Name())
	if err != nil {
		return fmt.Errorf("reading cells of %q: %w", t.Name(), err)
	}
	defer rows.Close()
	for rows.Next() {
		var row, col string
		var num sql.NullFloat64
		var txt sql.NullString
		if err := rows.Scan(&row, &col, &num, &txt); err != nil {
			return err
		}
		switch {
		case num.Valid:
			t.Set(row, col, Num(num.Float64))
		case txt.Valid:
			t.Set(row, col, Str(txt.String))
		}
	}
	return rows.Err()
}
