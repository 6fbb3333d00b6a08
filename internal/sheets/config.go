package sheets

import (
	"sort"

	u "labelmaker/internal/utils"
)

// FromConfig converts configured sheets into templates, ordered by name.
func FromConfig(cfg map[string]u.SheetConfig) []Template {
	out := make([]Template, 0, len(cfg))
	for name, s := range cfg {
		out = append(out, Template{
			Name:        name,
			PageWidth:   s.PageWidth,
			PageHeight:  s.PageHeight,
			MarginTop:   s.MarginTop,
			MarginLeft:  s.MarginLeft,
			LabelWidth:  s.LabelWidth,
			LabelHeight: s.LabelHeight,
			GapX:        s.GapX,
			GapY:        s.GapY,
			Rows:        s.Rows,
			Columns:     s.Columns,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
