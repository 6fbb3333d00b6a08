// Package sheets describes physical label sheets and resolves which positions
// on a partially used sheet must be skipped.
package sheets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownSheet is returned for sheet types that have no template.
var ErrUnknownSheet = errors.New("unknown sheet type")

// Template is the grid geometry of one sheet. Lengths are in inches.
type Template struct {
	Name        string  `json:"name"`
	PageWidth   float64 `json:"page_width"`
	PageHeight  float64 `json:"page_height"`
	MarginTop   float64 `json:"margin_top"`
	MarginLeft  float64 `json:"margin_left"`
	LabelWidth  float64 `json:"label_width"`
	LabelHeight float64 `json:"label_height"`
	GapX        float64 `json:"gap_x"`
	GapY        float64 `json:"gap_y"`
	Rows        int     `json:"rows"`
	Columns     int     `json:"columns"`
}

// PerSheet is the number of label positions on one sheet.
func (t Template) PerSheet() int {
	return t.Rows * t.Columns
}

// Cell returns the top-left corner of the 0-based slot, in inches.
func (t Template) Cell(slot int) (x, y float64) {
	row, col := slot/t.Columns, slot%t.Columns
	x = t.MarginLeft + float64(col)*(t.LabelWidth+t.GapX)
	y = t.MarginTop + float64(row)*(t.LabelHeight+t.GapY)
	return x, y
}

var builtin = []Template{
	// Cryo labels for 1.5/2.0 mL tubes, US letter.
	{Name: "LCRY-1700", PageWidth: 8.5, PageHeight: 11, MarginTop: 0.5, MarginLeft: 0.3,
		LabelWidth: 1.28, LabelHeight: 0.5, GapX: 0.35, GapY: 0.0, Rows: 20, Columns: 5},
	{Name: "LCRY-1100", PageWidth: 8.5, PageHeight: 11, MarginTop: 0.5, MarginLeft: 0.25,
		LabelWidth: 1.6, LabelHeight: 0.75, GapX: 0.0, GapY: 0.0, Rows: 13, Columns: 5},
	{Name: "AVERY-5160", PageWidth: 8.5, PageHeight: 11, MarginTop: 0.5, MarginLeft: 0.1875,
		LabelWidth: 2.625, LabelHeight: 1, GapX: 0.125, GapY: 0, Rows: 10, Columns: 3},
	{Name: "AVERY-5167", PageWidth: 8.5, PageHeight: 11, MarginTop: 0.5, MarginLeft: 0.3,
		LabelWidth: 1.75, LabelHeight: 0.5, GapX: 0.3, GapY: 0, Rows: 20, Columns: 4},
}

// Registry resolves sheet type names to templates. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	byName map[string]Template
}

// NewRegistry returns the built-in templates plus extra ones. Extra templates
// replace built-ins of the same name.
func NewRegistry(extra ...Template) *Registry {
	r := &Registry{byName: make(map[string]Template, len(builtin)+len(extra))}
	for _, t := range builtin {
		r.byName[strings.ToUpper(t.Name)] = t
	}
	for _, t := range extra {
		r.byName[strings.ToUpper(t.Name)] = t
	}
	return r
}

// Lookup finds a template by case-insensitive name.
func (r *Registry) Lookup(name string) (Template, error) {
	t, ok := r.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownSheet, name)
	}
	return t, nil
}

// All lists templates sorted by name.
func (r *Registry) All() []Template {
	out := make([]Template, 0, len(r.byName))
	for _, t := range r.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
