// Package rail routes passengers over a rail network and sizes the
// number of trains each line needs to carry them.
package rail

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/perdasilva/ormodel/pkg/index"
	"github.com/perdasilva/ormodel/pkg/table"
)

// Line is a rail line and the stations it calls at, in order. A loop
// line also runs between its last and first stations.
type Line struct {
	Name     string
	Stops    []string
	Capacity float64
	Loop     bool
}

// Hop is (line, from, to) between adjacent stations of a line.
type Hop = index.Triple[string, string, string]

type Instance struct {
	Lines      []Line
	Stations   []string
	Travel     *table.Table
	Passengers *table.Table
}

// Load reads the lines, line settings, travel and passengers tables.
// Line stops are keyed by their 1-based position.
func Load(b *table.Book) (*Instance, error) {
	if err := b.Require(nil, []string{"lines", "line settings", "travel", "passengers"}); err != nil {
		return nil, err
	}
	lines, _ := b.Table("lines")
	settings, _ := b.Table("line settings")
	inst := &Instance{}
	inst.Travel, _ = b.Table("travel")
	inst.Passengers, _ = b.Table("passengers")

	seen := make(map[string]bool)
	for _, name := range lines.Rows() {
		capacity, ok := settings.Float(name, "capacity")
		if !ok || capacity <= 0 {
			return nil, fmt.Errorf("line %s has no positive capacity", name)
		}
		loop, _ := settings.Float(name, "loop")
		l := Line{Name: name, Capacity: capacity, Loop: loop != 0}

		positions := make([]int, 0, len(lines.ColsOf(name)))
		byPosition := make(map[int]string)
		for _, col := range lines.ColsOf(name) {
			pos, err := strconv.Atoi(col)
			if err != nil {
				return nil, fmt.Errorf("line %s: position %q: %w", name, col, err)
			}
			station, _ := lines.Text(name, col)
			positions = append(positions, pos)
			byPosition[pos] = station
		}
		sort.Ints(positions)
		for _, pos := range positions {
			l.Stops = append(l.Stops, byPosition[pos])
			if !seen[byPosition[pos]] {
				seen[byPosition[pos]] = true
				inst.Stations = append(inst.Stations, byPosition[pos])
			}
		}
		if len(l.Stops) < 2 {
			return nil, fmt.Errorf("line %s calls at fewer than two stations", name)
		}
		inst.Lines = append(inst.Lines, l)
	}
	return inst, nil
}

// Minutes is the travel time between adjacent stations, in either
// direction.
func (inst *Instance) Minutes(from, to string) (float64, bool) {
	if v, ok := inst.Travel.Float(from, to); ok {
		return v, true
	}
	return inst.Travel.Float(to, from)
}

// Demand is the number of passengers from one station to another.
func (inst *Instance) Demand(from, to string) float64 {
	v, _ := inst.Passengers.Float(from, to)
	return v
}

// Hops lists every directed hop of every line, in line order.
func (inst *Instance) Hops() ([]Hop, error) {
	var out []Hop
	for _, l := range inst.Lines {
		n := len(l.Stops)
		last := n - 1
		if l.Loop && n > 2 {
			last = n
		}
		for i := 0; i < last; i++ {
			a, b := l.Stops[i], l.Stops[(i+1)%n]
			if _, ok := inst.Minutes(a, b); !ok {
				return nil, fmt.Errorf("line %s: no travel time between %s and %s", l.Name, a, b)
			}
			out = append(out, index.T(l.Name, a, b), index.T(l.Name, b, a))
		}
	}
	return out, nil
}

// Serving maps each directed station pair to the lines running it.
func Serving(hops []Hop) map[index.Pair[string, string]][]string {
	out := make(map[index.Pair[string, string]][]string)
	for _, h := range hops {
		key := index.P(h.Second, h.Third)
		out[key] = append(out[key], h.First)
	}
	return out
}
