package datasets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/perdasilva/ormodel/pkg/config"
	"github.com/perdasilva/ormodel/pkg/table"
)

// Loader finds datasets by name.
type Loader interface {
	Load(ctx context.Context, name string) (*table.Book, error)
	Close() error
}

// NewLoader returns the loader selected by cfg.
func NewLoader(cfg config.Data) (Loader, error) {
	switch cfg.Source {
	case config.SourceEmbedded, "":
		return embedded{}, nil
	case config.SourceFile:
		return Dir(cfg.Path), nil
	case config.SourceSQL:
		dialect, err := table.DialectOf(cfg.Driver)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening %s database: %w", cfg.Driver, err)
		}
		return &SQL{DB: db, Dialect: dialect}, nil
	}
	return nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
}

type embedded struct{}

func (embedded) Load(_ context.Context, name string) (*table.Book, error) {
	return Load(name)
}

func (embedded) Close() error {
	return nil
}

// Dir loads <name>.yaml, or failing that <name>.json, from a directory.
type Dir string

func (d Dir) Load(_ context.Context, name string) (*table.Book, error) {
	data, err := os.ReadFile(filepath.Join(string(d), name+".yaml"))
	if err == nil {
		return table.FromYAML(data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	data, err = os.ReadFile(filepath.Join(string(d), name+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("dataset %q in %s: %w", name, string(d), table.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return table.FromJSON(data)
}

func (Dir) Close() error {
	return nil
}

// SQL loads datasets stored by table.WriteSQL.
type SQL struct {
	DB      *sql.DB
	Dialect table.Dialect
}

func (s *SQL) Load(ctx context.Context, name string) (*table.Book, error) {
	return table.FromSQL(ctx, s.DB, s.Dialect, name)
}

func (s *SQL) Close() error {
	return s.DB.Close()
}
