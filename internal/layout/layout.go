// Package layout tiles identical bill copies onto a printed page.
//
// A layout is a lookup keyed by copy count: a grid arrangement and a uniform
// scale factor. Scale is a presentation constant per copy count, not a
// measurement of the rendered bill.
package layout

import (
	"fmt"
	"sort"
)

// MaxCopies is the largest copy count that has a layout.
const MaxCopies = 6

// Page is the printed sheet bills are tiled onto.
type Page struct {
	Name     string
	WidthMM  float64
	HeightMM float64
	Margin   string // CSS length
}

// A4 is the sheet used by the print document.
var A4 = Page{Name: "A4", WidthMM: 210, HeightMM: 297, Margin: "0.5in"}

// Spec is the arrangement for a copy count.
//
// Columns/Rows apply to narrow screens; WideColumns/WideRows apply at the
// wide breakpoint and in print. Both grids hold at least Copies cells.
type Spec struct {
	Copies      int     `json:"copies"`
	Columns     int     `json:"columns"`
	Rows        int     `json:"rows"`
	WideColumns int     `json:"wideColumns"`
	WideRows    int     `json:"wideRows"`
	Gap         string  `json:"gap"` // CSS gap between copies
	Scale       float64 `json:"scale"`
}

type entry struct {
	columns     int
	wideColumns int
	gap         string
	scale       float64
}

// table is indexed by copy count. Scale never increases with more copies.
var table = [MaxCopies + 1]entry{
	1: {columns: 1, wideColumns: 1, gap: "0", scale: 0.90},
	2: {columns: 1, wideColumns: 2, gap: "0", scale: 0.75},
	3: {columns: 1, wideColumns: 3, gap: "0", scale: 0.60},
	4: {columns: 2, wideColumns: 2, gap: "0", scale: 0.45},
	5: {columns: 2, wideColumns: 2, gap: "1rem 0", scale: 0.35},
	6: {columns: 2, wideColumns: 3, gap: "1rem", scale: 0.30},
}

// Engine selects layouts from a set of supported copy counts.
// It is immutable and safe for concurrent use.
type Engine struct {
	supported []int
}

// New creates an Engine offering the given copy counts (1..MaxCopies).
// With no arguments every count from 1 to MaxCopies is offered.
func New(supported ...int) (*Engine, error) {
	if len(supported) == 0 {
		supported = []int{1, 2, 3, 4, 5, 6}
	}

	seen := make(map[int]bool, len(supported))
	counts := make([]int, 0, len(supported))
	for _, n := range supported {
		if n < 1 || n > MaxCopies {
			return nil, fmt.Errorf("copy count %d out of range 1-%d", n, MaxCopies)
		}
		if !seen[n] {
			seen[n] = true
			counts = append(counts, n)
		}
	}
	sort.Ints(counts)

	return &Engine{supported: counts}, nil
}

// Default is an Engine offering every copy count.
func Default() *Engine {
	e, _ := New()
	return e
}

// Supported returns the offered copy counts in ascending order.
func (e *Engine) Supported() []int {
	return append([]int(nil), e.supported...)
}

// Normalize snaps copyCount to the nearest supported count.
// Ties go to the smaller count.
func (e *Engine) Normalize(copyCount int) int {
	best := e.supported[0]
	for _, n := range e.supported[1:] {
		if abs(n-copyCount) < abs(best-copyCount) {
			best = n
		}
	}
	return best
}

// Layout returns the arrangement for copyCount. Unsupported counts fall
// back to the nearest supported one; Layout never fails.
func (e *Engine) Layout(copyCount int) Spec {
	n := e.Normalize(copyCount)
	t := table[n]
	return Spec{
		Copies:      n,
		Columns:     t.columns,
		Rows:        ceilDiv(n, t.columns),
		WideColumns: t.wideColumns,
		WideRows:    ceilDiv(n, t.wideColumns),
		Gap:         t.gap,
		Scale:       t.scale,
	}
}

// GridTemplate is the CSS grid-template-columns value for narrow screens.
func (s Spec) GridTemplate() string {
	return fmt.Sprintf("repeat(%d, minmax(0, 1fr))", s.Columns)
}

// WideGridTemplate is the CSS grid-template-columns value at the wide
// breakpoint and in print.
func (s Spec) WideGridTemplate() string {
	return fmt.Sprintf("repeat(%d, minmax(0, 1fr))", s.WideColumns)
}

// ScalePercent is Scale as a whole percentage, e.g. 45 for 0.45.
func (s Spec) ScalePercent() int {
	return int(s.Scale*100 + 0.5)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
