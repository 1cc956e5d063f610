// Package report renders task results as aligned plain text.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
)

// Report is a titled list of sections.
type Report struct {
	Title    string
	Sections []*Section
}

// Section holds free text lines followed by an optional grid.
type Section struct {
	Title string
	Lines []string
	Grid  *Grid
}

// Grid is a table with a header row.
type Grid struct {
	Header []string
	Rows   [][]string
}

func New(title string) *Report {
	return &Report{Title: title}
}

// Section appends a new section.
func (r *Report) Section(format string, args ...interface{}) *Section {
	s := &Section{Title: fmt.Sprintf(format, args...)}
	r.Sections = append(r.Sections, s)
	return s
}

func (s *Section) Line(format string, args ...interface{}) *Section {
	s.Lines = append(s.Lines, fmt.Sprintf(format, args...))
	return s
}

// Table starts the grid of the section.
func (s *Section) Table(header ...string) *Grid {
	s.Grid = &Grid{Header: header}
	return s.Grid
}

func (g *Grid) Row(cells ...interface{}) *Grid {
	row := make([]string, len(cells))
	for i, c := range cells {
		switch c := c.(type) {
		case float64:
			row[i] = Number(c)
		default:
			row[i] = fmt.Sprint(c)
		}
	}
	g.Rows = append(g.Rows, row)
	return g
}

// Number formats v without a fractional part when it is integral.
func Number(v float64) string {
	if math.IsInf(v, 0) || v != math.Trunc(v) {
		return fmt.Sprintf("%.2f", v)
	}
	if math.Abs(v) < 1<<63 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.0f", v)
}

// Render writes r to w.
func Render(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if r.Title != "" {
		fmt.Fprintf(tw, "%s\n%s\n", r.Title, strings.Repeat("=", len(r.Title)))
	}
	for _, s := range r.Sections {
		fmt.Fprintln(tw)
		if s.Title != "" {
			fmt.Fprintf(tw, "%s\n", s.Title)
		}
		for _, l := range s.Lines {
			fmt.Fprintf(tw, "  %s\n", l)
		}
		if s.Grid == nil {
			continue
		}
		fmt.Fprintf(tw, "  %s\n", strings.Join(s.Grid.Header, "\t"))
		for _, row := range s.Grid.Rows {
			fmt.Fprintf(tw, "  %s\n", strings.Join(row, "\t"))
		}
		// tabwriter aligns columns per block of lines
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// String renders r, ignoring write errors.
func (r *Report) String() string {
	var b strings.Builder
	_ = Render(&b, r)
	return b.String()
}
