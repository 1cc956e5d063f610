package supply

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/datasets"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/report"
	"github.com/perdasilva/ormodel/pkg/solver"
	"github.com/perdasilva/ormodel/pkg/table"
	"github.com/perdasilva/ormodel/pkg/tasks"
)

func load(t *testing.T) *Instance {
	t.Helper()
	b, err := datasets.Load("supply")
	require.NoError(t, err)
	inst, err := Load(b)
	require.NoError(t, err)
	return inst
}

func TestBuildDeclaresOnlyApplicableVariables(t *testing.T) {
	m, err := Build(load(t), nil)
	require.NoError(t, err)
	assert.Equal(t, 6, m.Orders.Len())
	assert.Equal(t, 3, m.Production.Len())
	assert.Equal(t, 5, m.Deliveries.Len())

	_, ok := m.Orders.Lookup(index.T("S1", "Plastic", "F1"))
	assert.False(t, ok)
	_, ok = m.Production.Lookup(index.P("Gadget", "F1"))
	assert.False(t, ok)
	_, ok = m.Deliveries.Lookup(index.T("Gadget", "F2", "C2"))
	assert.False(t, ok)
}

func TestSolve(t *testing.T) {
	m, err := Build(load(t), nil)
	require.NoError(t, err)
	plan, outcome, err := Solve(context.Background(), solver.NewMIPEngine(), m)
	require.NoError(t, err)
	require.Equal(t, driver.OutcomeOptimal, outcome)

	assert.InDelta(t, 2260, plan.Cost, 1e-6)
	assert.Equal(t, map[Delivery]float64{
		index.T("Widget", "F1", "C1"): 40,
		index.T("Widget", "F2", "C2"): 30,
		index.T("Gadget", "F2", "C1"): 20,
	}, plan.Deliveries)
	assert.Equal(t, map[Make]float64{
		index.P("Widget", "F1"): 40,
		index.P("Widget", "F2"): 30,
		index.P("Gadget", "F2"): 20,
	}, plan.Production)
	assert.Equal(t, map[Order]float64{
		index.T("S1", "Iron", "F1"):    80,
		index.T("S2", "Iron", "F2"):    80,
		index.T("S2", "Plastic", "F1"): 40,
		index.T("S2", "Plastic", "F2"): 30,
	}, plan.Orders)
	// order cost per unit: S1 Iron to F1 4, S2 Iron to F2 5, S2 Plastic to F1 4, to F2 3
	assert.Equal(t, map[Account]float64{
		index.P("F1", "S1"): 320,
		index.P("F1", "S2"): 160,
		index.P("F2", "S2"): 490,
	}, plan.Bills)
	assert.Equal(t, 320.0, plan.Billed("S1"))
	assert.Equal(t, 650.0, plan.Billed("S2"))

	assert.Equal(t, map[string]float64{"F1": 400, "F2": 520}, plan.ProductionCost)
	assert.Equal(t, map[string]float64{"C1": 280, "C2": 90}, plan.ShippingCost)

	assert.Equal(t, map[Demanded]float64{
		index.P("Widget", "C1"): 0,
		index.P("Widget", "C2"): 0,
		index.P("Gadget", "C1"): 0,
	}, plan.Unmet)
	assert.Zero(t, plan.TotalUnmet())

	assert.InDelta(t, 120.0/140, plan.Shares["C1"]["F1"], 1e-9)
	assert.InDelta(t, 20.0/140, plan.Shares["C1"]["F2"], 1e-9)
	assert.Equal(t, map[string]float64{"F2": 1}, plan.Shares["C2"])

	for _, tt := range []struct {
		Name     string
		Customer string
		Material string
		Expected map[string]float64
	}{
		{Name: "iron to C1", Customer: "C1", Material: "Iron", Expected: map[string]float64{"F1": 0.8, "F2": 0.2}},
		{Name: "plastic to C1", Customer: "C1", Material: "Plastic", Expected: map[string]float64{"F1": 1}},
		{Name: "iron to C2", Customer: "C2", Material: "Iron", Expected: map[string]float64{"F2": 1}},
		{Name: "plastic to C2", Customer: "C2", Material: "Plastic", Expected: map[string]float64{"F2": 1}},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			got := plan.MaterialShares[tt.Customer][tt.Material]
			require.Len(t, got, len(tt.Expected))
			for f, want := range tt.Expected {
				assert.InDelta(t, want, got[f], 1e-9, f)
			}
		})
	}

	for _, p := range load(t).Demand.Rows() {
		for _, c := range load(t).Demand.ColsOf(p) {
			d, _ := load(t).Demand.Float(p, c)
			assert.GreaterOrEqual(t, plan.Delivered(p, c), d)
		}
	}
}

func TestInsufficientCapacity(t *testing.T) {
	inst := load(t)
	inst.Capacity = table.NewTable("capacity")
	inst.Capacity.SetFloat("Widget", "F1", 10)
	inst.Capacity.SetFloat("Widget", "F2", 10)
	inst.Capacity.SetFloat("Gadget", "F2", 80)
	m, err := Build(inst, nil)
	require.NoError(t, err)
	_, outcome, err := Solve(context.Background(), solver.NewMIPEngine(), m)
	require.NoError(t, err)
	assert.Equal(t, driver.OutcomeInfeasible, outcome)
}

func TestLoadRejectsUnmadeProduct(t *testing.T) {
	b, err := datasets.Load("supply")
	require.NoError(t, err)
	demand, err := b.Table("demand")
	require.NoError(t, err)
	demand.SetFloat("Gizmo", "C1", 5)
	_, err = Load(b)
	assert.ErrorContains(t, err, "Gizmo")
}

func TestTaskReport(t *testing.T) {
	b, err := datasets.Load("supply")
	require.NoError(t, err)
	res, err := Task{}.Run(context.Background(), b, tasks.Env{Mode: v1alpha1.ModeSingle})
	require.NoError(t, err)
	assert.Equal(t, driver.OutcomeOptimal, res.Outcome)
	require.NotNil(t, res.Objective)
	assert.InDelta(t, 2260, *res.Objective, 1e-6)

	text := res.Report.String()
	for _, want := range []string{
		"Total cost", "2260", "Widget", "C2", "0.86",
		"Production cost", "520", "Shipping cost", "280",
		"Unmet demand", "total: 0",
		"Material sourced per customer and material", "0.80", "0.20",
	} {
		assert.True(t, strings.Contains(text, want), "report lacks %q:\n%s", want, text)
	}
	assert.Equal(t, "0.86", report.Number(120.0/140))
}
