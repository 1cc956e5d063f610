package supply

import (
	"context"
	"math"

	"github.com/perdasilva/ormodel/pkg/decode"
	"github.com/perdasilva/ormodel/pkg/driver"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/solver"
)

// Account is (factory, supplier).
type Account = index.Pair[string, string]

// Demanded is (product, customer).
type Demanded = index.Pair[string, string]

// Plan is the decoded cost-minimal plan. Quantities are rounded to six
// decimals to hide simplex noise.
type Plan struct {
	Cost       float64
	Orders     map[Order]float64
	Production map[Make]float64
	Deliveries map[Delivery]float64
	// Bills is what each factory owes each supplier for material,
	// shipping included.
	Bills map[Account]float64
	// ProductionCost is keyed by factory, ShippingCost by customer.
	ProductionCost map[string]float64
	ShippingCost   map[string]float64
	// Unmet holds every demanded (product, customer) pair with the units
	// not delivered, zero when the demand is met.
	Unmet map[Demanded]float64
	// Shares is, per customer, the fraction of the material it receives
	// that was embodied at each factory.
	Shares map[string]map[string]float64
	// MaterialShares breaks Shares down by material:
	// customer, then material, then factory.
	MaterialShares map[string]map[string]map[string]float64
}

func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func rounded[K comparable](in map[K]float64) map[K]float64 {
	out := make(map[K]float64, len(in))
	for k, v := range in {
		if r := round(v); r != 0 {
			out[k] = r
		}
	}
	return out
}

func (m *Model) Decode(sol *solver.Solution) Plan {
	inst := m.Instance
	p := Plan{
		Cost:       round(sol.Objective()),
		Orders:     rounded(decode.Values(m.Orders, sol)),
		Production: rounded(decode.Values(m.Production, sol)),
		Deliveries: rounded(decode.Values(m.Deliveries, sol)),
	}

	_, bills := decode.Sum(m.Orders, sol, func(k Order) Account { return index.P(k.Third, k.First) }, func(k Order) float64 {
		c, _ := inst.orderCost(k)
		return c
	})
	p.Bills = rounded(bills)
	_, making := decode.Sum(m.Production, sol, func(k Make) string { return k.Second }, func(k Make) float64 {
		c, _ := inst.makeCost(k)
		return c
	})
	p.ProductionCost = rounded(making)
	_, shipping := decode.Sum(m.Deliveries, sol, func(k Delivery) string { return k.Third }, func(k Delivery) float64 {
		c, _ := inst.deliveryCost(k)
		return c
	})
	p.ShippingCost = rounded(shipping)

	p.Unmet = make(map[Demanded]float64)
	for _, prod := range inst.Demand.Rows() {
		for _, c := range inst.Demand.ColsOf(prod) {
			d, _ := inst.Demand.Float(prod, c)
			p.Unmet[index.P(prod, c)] = round(math.Max(d-p.Delivered(prod, c), 0))
		}
	}

	embodied := make(map[string]map[string]float64)
	byMaterial := make(map[string]map[string]map[string]float64)
	for k, qty := range p.Deliveries {
		product, factory, customer := k.First, k.Second, k.Third
		if embodied[customer] == nil {
			embodied[customer] = make(map[string]float64)
			byMaterial[customer] = make(map[string]map[string]float64)
		}
		for _, mat := range inst.Requirements.ColsOf(product) {
			r, _ := inst.Requirements.Float(product, mat)
			embodied[customer][factory] += r * qty
			if byMaterial[customer][mat] == nil {
				byMaterial[customer][mat] = make(map[string]float64)
			}
			byMaterial[customer][mat][factory] += r * qty
		}
	}
	p.Shares = decode.Fractions(embodied)
	p.MaterialShares = make(map[string]map[string]map[string]float64, len(byMaterial))
	for c, mats := range byMaterial {
		p.MaterialShares[c] = decode.Fractions(mats)
	}
	return p
}

// Billed returns the total a supplier bills across factories.
func (p Plan) Billed(supplier string) float64 {
	var total float64
	for k, v := range p.Bills {
		if k.Second == supplier {
			total += v
		}
	}
	return total
}

// TotalUnmet sums the undelivered demand.
func (p Plan) TotalUnmet() float64 {
	var total float64
	for _, v := range p.Unmet {
		total += v
	}
	return total
}

// Delivered returns the units of product a customer receives.
func (p Plan) Delivered(product, customer string) float64 {
	var total float64
	for k, v := range p.Deliveries {
		if k.First == product && k.Third == customer {
			total += v
		}
	}
	return total
}

// Solve returns the cost-minimal plan.
func Solve(ctx context.Context, engine solver.Engine, m *Model, opts ...driver.Option) (Plan, driver.Outcome, error) {
	outcome, sol, err := driver.Solve(ctx, engine, m.Model, opts...)
	if err != nil || !outcome.HasSolution() {
		return Plan{}, outcome, err
	}
	return m.Decode(sol), outcome, nil
}
