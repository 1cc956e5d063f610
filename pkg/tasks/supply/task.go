package supply

import (
	"context"
	"sort"

	"github.com/perdasilva/ormodel/api/v1alpha1"
	"github.com/perdasilva/ormodel/pkg/report"
	"github.com/perdasilva/ormodel/pkg/table"
	"github.com/perdasilva/ormodel/pkg/tasks"
)

type Task struct{}

func (Task) Name() string {
	return "supply"
}

func (Task) Description() string {
	return "cheapest material orders, production and deliveries of a supply chain"
}

func (Task) DefaultDataset() string {
	return "supply"
}

func (Task) DefaultMode() v1alpha1.Mode {
	return v1alpha1.ModeSingle
}

func (Task) Run(ctx context.Context, book *table.Book, env tasks.Env) (*tasks.Result, error) {
	env = env.Defaults()
	inst, err := Load(book)
	if err != nil {
		return nil, err
	}
	m, err := Build(inst, env.Logger)
	if err != nil {
		return nil, err
	}
	engine, err := env.EngineOr("mip")
	if err != nil {
		return nil, err
	}
	plan, outcome, err := Solve(ctx, engine, m, env.DriverOptions()...)
	if err != nil {
		return nil, err
	}
	res := &tasks.Result{Outcome: outcome, Report: Report(inst, plan)}
	if outcome.HasSolution() {
		res.Solutions = 1
		res.Objective = tasks.Objective(plan.Cost)
	}
	res.Report.Section("Outcome").Line("%s", outcome)
	return res, nil
}

// Report renders plan in the order the instance tables list things.
func Report(inst *Instance, plan Plan) *report.Report {
	r := report.New("Supply")
	r.Section("Total cost").Line("%s", report.Number(plan.Cost))

	orders := r.Section("Orders").Table("supplier", "material", "factory", "units")
	for _, s := range inst.Suppliers() {
		for _, mat := range inst.Stock.ColsOf(s) {
			for _, f := range inst.Factories() {
				if v, ok := plan.Orders[Order{First: s, Second: mat, Third: f}]; ok {
					orders.Row(s, mat, f, v)
				}
			}
		}
	}
	bills := r.Section("Bills").Table("factory", "supplier", "cost")
	for _, f := range inst.Factories() {
		for _, s := range inst.Suppliers() {
			if v, ok := plan.Bills[Account{First: f, Second: s}]; ok {
				bills.Row(f, s, v)
			}
		}
	}

	production := r.Section("Production").Table("product", "factory", "units")
	deliveries := r.Section("Deliveries").Table("product", "factory", "customer", "units")
	for _, p := range inst.Products() {
		for _, f := range inst.Capacity.ColsOf(p) {
			if v, ok := plan.Production[Make{First: p, Second: f}]; ok {
				production.Row(p, f, v)
			}
			for _, c := range inst.Customers() {
				if v, ok := plan.Deliveries[Delivery{First: p, Second: f, Third: c}]; ok {
					deliveries.Row(p, f, c, v)
				}
			}
		}
	}
	making := r.Section("Production cost").Table("factory", "cost")
	for _, f := range inst.Factories() {
		making.Row(f, plan.ProductionCost[f])
	}
	shipping := r.Section("Shipping cost").Table("customer", "cost")
	for _, c := range inst.Customers() {
		shipping.Row(c, plan.ShippingCost[c])
	}

	unmet := r.Section("Unmet demand").Line("total: %s", report.Number(plan.TotalUnmet())).
		Table("product", "customer", "demand", "delivered", "unmet")
	for _, p := range inst.Demand.Rows() {
		for _, c := range inst.Demand.ColsOf(p) {
			d, _ := inst.Demand.Float(p, c)
			unmet.Row(p, c, d, plan.Delivered(p, c), plan.Unmet[Demanded{First: p, Second: c}])
		}
	}

	shares := r.Section("Material sourced per customer").Table("customer", "factory", "share")
	for _, c := range inst.Customers() {
		for _, f := range sortedKeys(plan.Shares[c]) {
			shares.Row(c, f, plan.Shares[c][f])
		}
	}
	byMaterial := r.Section("Material sourced per customer and material").Table("customer", "material", "factory", "share")
	for _, c := range inst.Customers() {
		for _, mat := range inst.Materials() {
			fs := plan.MaterialShares[c][mat]
			for _, f := range sortedKeys(fs) {
				byMaterial.Row(c, mat, f, fs[f])
			}
		}
	}
	return r
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
