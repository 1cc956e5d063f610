package table

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const datasetYAML = `
apiVersion: ormodel.io/v1alpha1
kind: Dataset
metadata:
  name: supply
  description: small supply network
spec:
  schemaVersion: 1.2.0
  domains:
    factories: [F1, F2]
    customers: [C1, C2]
  tables:
  - name: stock
    cells:
      S1: {iron: 500, plastic: ~}
      S2: {iron: 300, plastic: 400}
  - name: demand
    column: units
    cells:
      C1: 40
      C2: .nan
  - name: passengers
    filter: value > 0
    cells:
      A: {B: 0, C: 12}
      B: {A: 3}
  - name: genders
    cells:
      James: male
      Emily: female
`

const datasetJSON = `{
  "apiVersion": "ormodel.io/v1alpha1",
  "kind": "Dataset",
  "metadata": {"name": "supply"},
  "spec": {
    "schemaVersion": "1.0.0",
    "domains": {"factories": ["F2", "F1"]},
    "tables": [
      {"name": "stock", "cells": {"S2": {"plastic": 400, "iron": 300}, "S1": {"iron": 500, "plastic": null}}},
      {"name": "demand", "column": "units", "cells": {"C1": 40, "C2": null}},
      {"name": "passengers", "filter": "value > 0", "cells": {"A": {"B": 0, "C": 12}}}
    ]
  }
}`

func TestFromYAML(t *testing.T) {
	b, err := FromYAML([]byte(datasetYAML))
	require.NoError(t, err)
	assert.Equal(t, "supply", b.Name())
	assert.Equal(t, "1.2.0", b.Schema().String())

	factories, err := b.Domain("factories")
	require.NoError(t, err)
	assert.Equal(t, []string{"F1", "F2"}, factories.Values())

	stock, err := b.Table("stock")
	require.NoError(t, err)
	assert.True(t, stock.Has("S1", "iron"))
	assert.False(t, stock.Has("S1", "plastic"))
	v, ok := stock.Float("S2", "plastic")
	assert.True(t, ok)
	assert.Equal(t, 400.0, v)
	assert.Equal(t, []string{"S1", "S2"}, stock.RowsOf("iron"))

	demand, err := b.Table("demand")
	require.NoError(t, err)
	assert.True(t, demand.Single())
	units, ok := demand.Value("C1")
	assert.True(t, ok)
	assert.Equal(t, 40.0, units)
	_, ok = demand.Value("C2")
	assert.False(t, ok)

	passengers, err := b.Table("passengers")
	require.NoError(t, err)
	assert.Equal(t, 2, passengers.Len())
	assert.False(t, passengers.Has("A", "B"))

	genders, err := b.Table("genders")
	require.NoError(t, err)
	g, ok := genders.Text("Emily", "value")
	assert.True(t, ok)
	assert.Equal(t, "female", g)
}

func TestFromJSON(t *testing.T) {
	b, err := FromJSON([]byte(datasetJSON))
	require.NoError(t, err)

	factories, err := b.Domain("factories")
	require.NoError(t, err)
	assert.Equal(t, []string{"F2", "F1"}, factories.Values())

	stock, err := b.Table("stock")
	require.NoError(t, err)
	assert.Equal(t, []string{"S2", "S1"}, stock.Rows())
	assert.Equal(t, 3, stock.Len())

	demand, err := b.Table("demand")
	require.NoError(t, err)
	assert.Equal(t, "units", demand.Column())
	assert.Equal(t, 1, demand.Len())

	passengers, err := b.Table("passengers")
	require.NoError(t, err)
	assert.Equal(t, 1, passengers.Len())
}

func TestInvalidDatasets(t *testing.T) {
	for _, tt := range []struct {
		Name string
		Doc  string
	}{
		{
			Name: "unsupported schema",
			Doc:  "kind: Dataset\nmetadata: {name: x}\nspec: {schemaVersion: 2.0.0}\n",
		},
		{
			Name: "wrong kind",
			Doc:  "kind: Run\nmetadata: {name: x}\nspec: {schemaVersion: 1.0.0}\n",
		},
		{
			Name: "bad filter",
			Doc:  "kind: Dataset\nmetadata: {name: x}\nspec:\n  schemaVersion: 1.0.0\n  tables:\n  - name: t\n    filter: 'value >'\n    cells: {a: 1}\n",
		},
		{
			Name: "duplicate domain value",
			Doc:  "kind: Dataset\nmetadata: {name: x}\nspec:\n  schemaVersion: 1.0.0\n  domains:\n    d: [a, a]\n",
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			_, err := FromYAML([]byte(tt.Doc))
			assert.Error(t, err)
		})
	}
}

func TestRequireAggregatesMissing(t *testing.T) {
	b, err := FromYAML([]byte(datasetYAML))
	require.NoError(t, err)
	assert.NoError(t, b.Require([]string{"factories"}, []string{"stock"}))

	err = b.Require([]string{"suppliers"}, []string{"stock", "costs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suppliers")
	assert.Contains(t, err.Error(), "costs")
}

func TestYAMLRoundTrip(t *testing.T) {
	b, err := FromYAML([]byte(datasetYAML))
	require.NoError(t, err)
	data, err := ToYAML(b)
	require.NoError(t, err)
	again, err := FromYAML(data)
	require.NoError(t, err)
	assertSameBook(t, b, again)
}

func TestSQLRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "datasets.db"))
	require.NoError(t, err)
	defer db.Close()

	b, err := FromYAML([]byte(datasetYAML))
	require.NoError(t, err)
	require.NoError(t, WriteSQL(ctx, db, SQLite, b))
	// Writing twice replaces the dataset.
	require.NoError(t, WriteSQL(ctx, db, SQLite, b))

	again, err := FromSQL(ctx, db, SQLite, "supply")
	require.NoError(t, err)
	assertSameBook(t, b, again)

	_, err = FromSQL(ctx, db, SQLite, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", Postgres.rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = ?", SQLite.rebind("a = ?"))
}

func assertSameBook(t *testing.T, want, got *Book) {
	t.Helper()
	assert.Equal(t, want.Name(), got.Name())
	assert.Equal(t, want.Schema(), got.Schema())
	assert.Len(t, got.Domains(), len(want.Domains()))
	for _, d := range want.Domains() {
		other, err := got.Domain(d.Name())
		require.NoError(t, err)
		assert.Equal(t, d.Values(), other.Values())
	}
	for _, tbl := range want.Tables() {
		other, err := got.Table(tbl.Name())
		require.NoError(t, err)
		assert.Equal(t, tbl.Single(), other.Single(), tbl.Name())
		assert.Equal(t, tbl.Len(), other.Len(), tbl.Name())
		tbl.Each(func(row, col string, c Cell) {
			oc, ok := other.Get(row, col)
			assert.True(t, ok, "%s (%s, %s)", tbl.Name(), row, col)
			assert.Equal(t, c, oc)
		})
	}
}
