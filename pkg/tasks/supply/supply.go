// Package supply plans material orders, production and deliveries of a
// supply chain at minimum cost.
package supply

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/perdasilva/ormodel/pkg/constraints"
	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/objective"
	"github.com/perdasilva/ormodel/pkg/solver"
	"github.com/perdasilva/ormodel/pkg/table"
)

var tableNames = []string{
	"stock", "material cost", "material shipping", "requirements",
	"capacity", "production cost", "demand", "shipping",
}

// Order is (supplier, material, factory).
type Order = index.Triple[string, string, string]

// Make is (product, factory).
type Make = index.Pair[string, string]

// Delivery is (product, factory, customer).
type Delivery = index.Triple[string, string, string]

type Instance struct {
	// Stock is units of a material (col) a supplier (row) holds.
	Stock            *table.Table
	MaterialCost     *table.Table
	MaterialShipping *table.Table
	// Requirements is units of material (col) per unit of product (row).
	Requirements   *table.Table
	Capacity       *table.Table
	ProductionCost *table.Table
	// Demand is units of product (row) a customer (col) wants.
	Demand   *table.Table
	Shipping *table.Table
}

func Load(b *table.Book) (*Instance, error) {
	if err := b.Require(nil, tableNames); err != nil {
		return nil, err
	}
	get := func(name string) *table.Table {
		t, _ := b.Table(name)
		return t
	}
	inst := &Instance{
		Stock:            get("stock"),
		MaterialCost:     get("material cost"),
		MaterialShipping: get("material shipping"),
		Requirements:     get("requirements"),
		Capacity:         get("capacity"),
		ProductionCost:   get("production cost"),
		Demand:           get("demand"),
		Shipping:         get("shipping"),
	}
	for _, p := range inst.Demand.Rows() {
		if len(inst.Capacity.ColsOf(p)) == 0 {
			return nil, fmt.Errorf("product %s is demanded but no factory makes it", p)
		}
	}
	return inst, nil
}

func (inst *Instance) Suppliers() []string { return inst.Stock.Rows() }
func (inst *Instance) Materials() []string { return inst.Requirements.Cols() }
func (inst *Instance) Products() []string  { return inst.Capacity.Rows() }
func (inst *Instance) Factories() []string { return inst.Capacity.Cols() }
func (inst *Instance) Customers() []string { return inst.Demand.Cols() }

func (inst *Instance) orderable(k Order) bool {
	return inst.Stock.Has(k.First, k.Second) && inst.MaterialShipping.Has(k.First, k.Third)
}

func (inst *Instance) deliverable(k Delivery) bool {
	return inst.Capacity.Has(k.First, k.Second) &&
		inst.Demand.Has(k.First, k.Third) &&
		inst.Shipping.Has(k.Second, k.Third)
}

// orderCost is the material price plus shipping it to the factory.
func (inst *Instance) orderCost(k Order) (float64, bool) {
	price, ok1 := inst.MaterialCost.Float(k.First, k.Second)
	ship, ok2 := inst.MaterialShipping.Float(k.First, k.Third)
	return price + ship, ok1 && ok2
}

func (inst *Instance) makeCost(k Make) (float64, bool) {
	return inst.ProductionCost.Float(k.First, k.Second)
}

func (inst *Instance) deliveryCost(k Delivery) (float64, bool) {
	return inst.Shipping.Float(k.Second, k.Third)
}

// Model is the cost minimization LP. All variables are continuous.
type Model struct {
	*solver.Model
	Instance   *Instance
	Orders     *index.Index[Order]
	Production *index.Index[Make]
	Deliveries *index.Index[Delivery]
	Builder    *constraints.ConstraintBuilder
}

func Build(inst *Instance, logger *zap.Logger) (*Model, error) {
	m := &Model{Model: solver.NewModel("supply"), Instance: inst}
	m.Orders = index.New[Order](m.Model, "order", inst.orderable)
	m.Production = index.New[Make](m.Model, "make", index.FromTable(inst.Capacity))
	m.Deliveries = index.New[Delivery](m.Model, "deliver", inst.deliverable)

	for _, s := range inst.Suppliers() {
		for _, mat := range inst.Stock.ColsOf(s) {
			stock, _ := inst.Stock.Float(s, mat)
			for _, f := range inst.Factories() {
				if err := m.Orders.DeclareAll([]Order{index.T(s, mat, f)}, solver.Continuous, 0, stock); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, k := range index.Pairs(inst.Products(), inst.Factories()) {
		capacity, ok := inst.Capacity.Float(k.First, k.Second)
		if !ok {
			continue
		}
		if _, err := m.Production.Declare(k, solver.Continuous, 0, capacity); err != nil {
			return nil, err
		}
	}
	for _, k := range index.TableCells(inst.Capacity) {
		for _, c := range inst.Customers() {
			if err := m.Deliveries.DeclareAll([]Delivery{index.T(k.First, k.Second, c)}, solver.Continuous, 0, math.Inf(1)); err != nil {
				return nil, err
			}
		}
	}

	b := constraints.NewConstraintBuilder(m.Model, logger)
	m.Builder = b
	one := func(index.Triple[string, string, string]) (float64, bool) { return 1, true }
	onePair := func(Make) (float64, bool) { return 1, true }

	_, ordersBySupply := index.GroupBy(m.Orders, func(k Order) Make { return index.P(k.First, k.Second) })
	for _, s := range inst.Suppliers() {
		for _, mat := range inst.Stock.ColsOf(s) {
			stock, _ := inst.Stock.Float(s, mat)
			constraints.Capacity(b, "stock", m.Orders, ordersBySupply[index.P(s, mat)], one, stock)
		}
	}

	_, ordersByFactory := index.GroupBy(m.Orders, func(k Order) Make { return index.P(k.Second, k.Third) })
	_, productionByFactory := index.GroupBy(m.Production, func(k Make) string { return k.Second })
	for _, mat := range inst.Materials() {
		for _, f := range inst.Factories() {
			uses := m.Production.Sum(productionByFactory[f], func(k Make) (float64, bool) {
				return inst.Requirements.Float(k.First, mat)
			})
			balance := m.Orders.Sum(ordersByFactory[index.P(mat, f)], one)
			balance.AddExpr(uses, -1)
			constraints.Range(b, "factory material balance", balance, 0, 0)
		}
		var available float64
		for _, s := range inst.Suppliers() {
			v, _ := inst.Stock.Float(s, mat)
			available += v
		}
		constraints.Capacity(b, "material requirement", m.Production, m.Production.Keys(), func(k Make) (float64, bool) {
			return inst.Requirements.Float(k.First, mat)
		}, available)
	}

	_, deliveriesByMake := index.GroupBy(m.Deliveries, func(k Delivery) Make { return index.P(k.First, k.Second) })
	_, productionByProduct := index.GroupBy(m.Production, func(k Make) string { return k.First })
	_, deliveriesByDemand := index.GroupBy(m.Deliveries, func(k Delivery) Make { return index.P(k.First, k.Third) })
	for _, k := range m.Production.Keys() {
		shipped := m.Deliveries.Sum(deliveriesByMake[k], one)
		v, _ := m.Production.Lookup(k)
		shipped.Add(v, -1)
		constraints.Range(b, "production is delivered", shipped, 0, 0)
		capacity, _ := inst.Capacity.Float(k.First, k.Second)
		constraints.Capacity(b, "capacity", m.Production, []Make{k}, onePair, capacity)
	}
	for _, p := range inst.Demand.Rows() {
		var total float64
		for _, c := range inst.Demand.ColsOf(p) {
			d, _ := inst.Demand.Float(p, c)
			total += d
			constraints.Range(b, "demand", m.Deliveries.Sum(deliveriesByDemand[index.P(p, c)], one), d, math.Inf(1))
		}
		constraints.Range(b, "production covers demand", m.Production.Sum(productionByProduct[p], onePair), total, math.Inf(1))
	}

	cost := objective.New(solver.Minimize)
	objective.AddAll(cost, m.Orders, inst.orderCost)
	objective.AddAll(cost, m.Production, inst.makeCost)
	objective.AddAll(cost, m.Deliveries, inst.deliveryCost)
	if err := cost.Apply(m.Model); err != nil {
		return nil, err
	}
	b.Log()
	return m, nil
}
