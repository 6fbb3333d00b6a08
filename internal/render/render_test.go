package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelmaker/internal/sheets"
	u "labelmaker/internal/utils"
)

func smallSheet() sheets.Template {
	return sheets.Template{
		Name: "TEST-2x2", PageWidth: 4, PageHeight: 3,
		MarginTop: 0.5, MarginLeft: 0.25,
		LabelWidth: 1.5, LabelHeight: 1, GapX: 0.5, GapY: 0.25,
		Rows: 2, Columns: 2,
	}
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("L%d", i+1)
	}
	return out
}

func TestLayout_PaginatesInReadingOrder(t *testing.T) {
	pages := Layout(texts(5), nil, smallSheet())
	require.Len(t, pages, 2)
	require.Len(t, pages[0].Cells, 4)
	require.Len(t, pages[1].Cells, 1)

	assert.Equal(t, Cell{X: 0.25, Y: 0.5, Width: 1.5, Height: 1, Text: "L1"}, pages[0].Cells[0])
	assert.Equal(t, Cell{X: 2.25, Y: 0.5, Width: 1.5, Height: 1, Text: "L2"}, pages[0].Cells[1])
	assert.Equal(t, Cell{X: 0.25, Y: 1.75, Width: 1.5, Height: 1, Text: "L3"}, pages[0].Cells[2])
	assert.Equal(t, "L5", pages[1].Cells[0].Text)
	assert.Equal(t, 0.25, pages[1].Cells[0].X)
}

func TestLayout_SkipsUsedOnFirstSheetOnly(t *testing.T) {
	used := sheets.UsedPositions{0: {}, 2: {}}
	pages := Layout(texts(4), used, smallSheet())
	require.Len(t, pages, 2)
	require.Len(t, pages[0].Cells, 2)
	assert.Equal(t, "L1", pages[0].Cells[0].Text)
	assert.Equal(t, 2.25, pages[0].Cells[0].X)
	assert.Equal(t, 0.5, pages[0].Cells[0].Y)
	assert.Equal(t, "L2", pages[0].Cells[1].Text)
	assert.Equal(t, 1.75, pages[0].Cells[1].Y)

	// Second sheet starts at slot 0 even though slot 0 was used on the first.
	assert.Equal(t, "L3", pages[1].Cells[0].Text)
	assert.Equal(t, 0.25, pages[1].Cells[0].X)
	assert.Equal(t, 0.5, pages[1].Cells[0].Y)
}

func TestLayout_FullyUsedFirstSheetIsDropped(t *testing.T) {
	used := sheets.UsedPositions{0: {}, 1: {}, 2: {}, 3: {}}
	pages := Layout(texts(1), used, smallSheet())
	require.Len(t, pages, 1)
	assert.Equal(t, "L1", pages[0].Cells[0].Text)
}

func TestLayout_Empty(t *testing.T) {
	assert.Nil(t, Layout(nil, nil, smallSheet()))
	assert.Nil(t, Layout(texts(2), nil, sheets.Template{}))
}

func TestBuildHTML(t *testing.T) {
	pages := Layout([]string{"A1", "<b>x</b>", "two\nlines"}, nil, smallSheet())
	html, err := BuildHTML(pages, smallSheet(), Style{Border: true, FontSize: 9, Padding: 1.75, TextAnchor: "end"})
	require.NoError(t, err)

	assert.Contains(t, html, "size: 4in 3in")
	assert.Contains(t, html, "font-size: 9pt; padding: 1.75pt; text-align: right;")
	assert.Contains(t, html, `class="cell border"`)
	assert.Contains(t, html, "left: 2.25in; top: 0.5in; width: 1.5in; height: 1in;")
	assert.Contains(t, html, "&lt;b&gt;x&lt;/b&gt;")
	assert.NotContains(t, html, "<b>x</b>")
	assert.NotContains(t, html, "ZgotmplZ")
	assert.Equal(t, 1, strings.Count(html, `<div class="page">`))
}

func TestBuildHTML_NoBorderAndAnchors(t *testing.T) {
	pages := Layout([]string{"A"}, nil, smallSheet())
	for anchor, align := range map[string]string{"start": "left", "middle": "center", "end": "right"} {
		html, err := BuildHTML(pages, smallSheet(), Style{FontSize: 12, Padding: 0, TextAnchor: anchor})
		require.NoError(t, err)
		assert.Contains(t, html, "text-align: "+align)
		assert.NotContains(t, html, "cell border")
	}
}

func TestBuildHTML_RejectsBadStyle(t *testing.T) {
	pages := Layout([]string{"A"}, nil, smallSheet())

	_, err := BuildHTML(pages, smallSheet(), Style{FontSize: 12, TextAnchor: "justify"})
	assert.ErrorIs(t, err, ErrInvalidAnchor)

	_, err = BuildHTML(pages, smallSheet(), Style{FontSize: 0, TextAnchor: "middle"})
	assert.ErrorIs(t, err, ErrInvalidStyle)

	_, err = BuildHTML(pages, smallSheet(), Style{FontSize: 12, Padding: -1, TextAnchor: "middle"})
	assert.ErrorIs(t, err, ErrInvalidStyle)
}

func validRequest() Request {
	return Request{
		Labels:    []string{"A1", "A2"},
		SheetType: "LCRY-1700",
		Style:     Style{FontSize: 12, Padding: 1.75, TextAnchor: "middle"},
	}
}

func TestChromeRenderer_UnknownSheet(t *testing.T) {
	r := NewChromeRenderer(sheets.NewRegistry(), u.PDFConfig{})
	req := validRequest()
	req.SheetType = "NOPE"
	_, err := r.Render(context.Background(), req)
	assert.ErrorIs(t, err, sheets.ErrUnknownSheet)
}

func TestChromeRenderer_ErrorWhenBinaryMissing(t *testing.T) {
	r := NewChromeRenderer(sheets.NewRegistry(), u.PDFConfig{
		ChromePath:  "/definitely/missing/chrome",
		TimeoutSecs: 1,
	})
	_, err := r.Render(context.Background(), validRequest())
	assert.Error(t, err)
}

func TestChromeRenderer_PoolInitError(t *testing.T) {
	r := NewChromeRenderer(sheets.NewRegistry(), u.PDFConfig{
		ChromePoolSize: 1,
		UserDataDir:    "/dev/null/not-allowed",
		TimeoutSecs:    1,
	})
	defer r.Close()

	_, err := r.Pool()
	assert.Error(t, err)
	_, err = r.Render(context.Background(), validRequest())
	assert.Error(t, err)
}

func TestChromeRenderer_OneShotUsesConfiguredDataDir(t *testing.T) {
	r := NewChromeRenderer(sheets.NewRegistry(), u.PDFConfig{
		UserDataDir: "/dev/null/not-allowed",
		TimeoutSecs: 1,
	})
	_, err := r.Render(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot create chrome data dir")

	base := filepath.Join(t.TempDir(), "profiles")
	r = NewChromeRenderer(sheets.NewRegistry(), u.PDFConfig{
		ChromePath:  "/definitely/missing/chrome",
		UserDataDir: base,
		TimeoutSecs: 1,
	})
	_, err = r.Render(context.Background(), validRequest())
	require.Error(t, err)

	// The base is created and the per-render profile is removed afterwards.
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChromeRenderer_PoolDisabled(t *testing.T) {
	r := NewChromeRenderer(sheets.NewRegistry(), u.PDFConfig{})
	pool, err := r.Pool()
	assert.NoError(t, err)
	assert.Nil(t, pool)
	r.Close()
}

func TestPrintHTML_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := printHTML(ctx, "<html><body>x</body></html>", smallSheet())
	assert.Error(t, err)
}
