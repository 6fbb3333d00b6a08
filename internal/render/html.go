package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strconv"

	"labelmaker/internal/sheets"
)

var (
	// ErrInvalidAnchor is returned for text anchors other than start, middle and end.
	ErrInvalidAnchor = errors.New("invalid text anchor")
	// ErrInvalidStyle is returned for non-positive font sizes or negative padding.
	ErrInvalidStyle = errors.New("invalid label style")
)

// Style controls how each cell is drawn. FontSize and Padding are in points.
type Style struct {
	Border     bool
	FontSize   float64
	Padding    float64
	TextAnchor string
}

var anchorAlign = map[string]string{
	"start":  "left",
	"middle": "center",
	"end":    "right",
}

type htmlCell struct {
	Box  template.CSS
	Text string
}

type htmlPage struct {
	Cells []htmlCell
}

type htmlDoc struct {
	PageCSS template.CSS
	CellCSS template.CSS
	SizeCSS template.CSS
	Border  bool
	Pages   []htmlPage
}

var sheetTemplate = template.Must(template.New("sheet").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><style>
@page { {{.PageCSS}} }
html, body { margin: 0; padding: 0; }
.page { position: relative; overflow: hidden; page-break-after: always; {{.SizeCSS}} }
.page:last-child { page-break-after: auto; }
.cell { position: absolute; box-sizing: border-box; display: flex; flex-direction: column; justify-content: center; overflow: hidden; white-space: pre-line; word-break: break-word; line-height: 1.15; font-family: Helvetica, Arial, sans-serif; {{.CellCSS}} }
.border { outline: 0.5pt solid #000; outline-offset: -0.5pt; }
</style></head><body>
{{- range .Pages}}
<div class="page">
{{- range .Cells}}<div class="cell{{if $.Border}} border{{end}}" style="{{.Box}}">{{.Text}}</div>{{end}}
</div>
{{- end}}
</body></html>
`))

// BuildHTML renders pages as a print-ready HTML document sized to tpl.
func BuildHTML(pages []Page, tpl sheets.Template, style Style) (string, error) {
	align, ok := anchorAlign[style.TextAnchor]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAnchor, style.TextAnchor)
	}
	if style.FontSize <= 0 || style.Padding < 0 {
		return "", fmt.Errorf("%w: font size %v, padding %v", ErrInvalidStyle, style.FontSize, style.Padding)
	}

	doc := htmlDoc{
		PageCSS: template.CSS(fmt.Sprintf("size: %sin %sin; margin: 0;", num(tpl.PageWidth), num(tpl.PageHeight))),
		SizeCSS: template.CSS(fmt.Sprintf("width: %sin; height: %sin;", num(tpl.PageWidth), num(tpl.PageHeight))),
		CellCSS: template.CSS(fmt.Sprintf("font-size: %spt; padding: %spt; text-align: %s;", num(style.FontSize), num(style.Padding), align)),
		Border:  style.Border,
		Pages:   make([]htmlPage, 0, len(pages)),
	}
	for _, p := range pages {
		hp := htmlPage{Cells: make([]htmlCell, 0, len(p.Cells))}
		for _, c := range p.Cells {
			hp.Cells = append(hp.Cells, htmlCell{
				Box: template.CSS(fmt.Sprintf("left: %sin; top: %sin; width: %sin; height: %sin;",
					num(c.X), num(c.Y), num(c.Width), num(c.Height))),
				Text: c.Text,
			})
		}
		doc.Pages = append(doc.Pages, hp)
	}

	var buf bytes.Buffer
	if err := sheetTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render sheet html: %w", err)
	}
	return buf.String(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
