// Package render lays label texts out on sheet templates and prints them to PDF.
package render

import "labelmaker/internal/sheets"

// Cell is one placed label. Coordinates are in inches from the top-left page corner.
type Cell struct {
	X, Y, Width, Height float64
	Text                string
}

// Page is one physical sheet.
type Page struct {
	Cells []Cell
}

// Layout assigns texts to slots in reading order. Used slots are skipped on
// the first sheet only; later sheets are fresh. A first sheet with no free
// slot is not emitted.
func Layout(texts []string, used sheets.UsedPositions, tpl sheets.Template) []Page {
	perSheet := tpl.PerSheet()
	if perSheet <= 0 || len(texts) == 0 {
		return nil
	}

	var pages []Page
	current := Page{}
	slot := 0
	first := true

	for i := 0; i < len(texts); {
		if slot == perSheet {
			if len(current.Cells) > 0 {
				pages = append(pages, current)
			}
			current = Page{}
			slot = 0
			first = false
		}
		if first && used.Contains(slot) {
			slot++
			continue
		}
		x, y := tpl.Cell(slot)
		current.Cells = append(current.Cells, Cell{
			X:      x,
			Y:      y,
			Width:  tpl.LabelWidth,
			Height: tpl.LabelHeight,
			Text:   texts[i],
		})
		slot++
		i++
	}
	if len(current.Cells) > 0 {
		pages = append(pages, current)
	}
	return pages
}
