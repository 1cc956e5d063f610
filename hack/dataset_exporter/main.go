package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/perdasilva/ormodel/pkg/datasets"
	"github.com/perdasilva/ormodel/pkg/table"
)

func main() {
	var (
		driver string
		dsn    string
		dir    string
	)
	cmd := &cobra.Command{
		Use:   "dataset_exporter [DATASET...]",
		Short: "Store datasets in a SQL database readable by the sql data source",
		Long: "Exports the named built-in datasets, or every built-in dataset when none\n" +
			"is named. With --dir, every .yaml and .json file of the directory is\n" +
			"exported instead.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			dialect, err := table.DialectOf(driver)
			if err != nil {
				return err
			}
			db, err := sql.Open(driver, dsn)
			if err != nil {
				return fmt.Errorf("opening %s database: %w", driver, err)
			}
			defer db.Close()

			books, err := collect(dir, args)
			if err != nil {
				return err
			}
			ctx := context.Background()
			for _, b := range books {
				if err := table.WriteSQL(ctx, db, dialect, b); err != nil {
					return fmt.Errorf("exporting dataset %s: %w", b.Name(), err)
				}
				logger.Info("exported dataset", zap.String("dataset", b.Name()), zap.Int("tables", len(b.Tables())))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "sqlite", "database/sql driver: sqlite or pgx")
	cmd.Flags().StringVar(&dsn, "dsn", "datasets.db", "data source name")
	cmd.Flags().StringVar(&dir, "dir", "", "directory of dataset files to export")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func collect(dir string, names []string) ([]*table.Book, error) {
	var books []*table.Book
	if dir == "" {
		if len(names) == 0 {
			names = datasets.Names()
		}
		for _, name := range names {
			b, err := datasets.Load(name)
			if err != nil {
				return nil, err
			}
			books = append(books, b)
		}
		return books, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory (%s): %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var b *table.Book
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			b, err = table.FromYAML(data)
		case ".json":
			b, err = table.FromJSON(data)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", e.Name(), err)
		}
		books = append(books, b)
	}
	return books, nil
}
