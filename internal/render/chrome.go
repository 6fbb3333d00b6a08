package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"labelmaker/internal/chrome"
	"labelmaker/internal/sheets"
	u "labelmaker/internal/utils"
)

const acquireTimeout = 5 * time.Second

// Request is everything needed to print one job.
type Request struct {
	Labels    []string
	Used      sheets.UsedPositions
	SheetType string
	Style     Style
}

// Renderer produces a complete PDF for a request.
type Renderer interface {
	Render(ctx context.Context, req Request) ([]byte, error)
}

// ChromeRenderer prints label sheets through headless Chrome. With a positive
// pool size it shares one browser across requests; otherwise every request
// launches its own.
type ChromeRenderer struct {
	Sheets *sheets.Registry
	Config u.PDFConfig

	poolMu sync.Mutex
	pool   *chrome.Pool
}

// NewChromeRenderer returns a renderer; the browser starts on first use.
func NewChromeRenderer(reg *sheets.Registry, cfg u.PDFConfig) *ChromeRenderer {
	return &ChromeRenderer{Sheets: reg, Config: cfg}
}

// Pool returns the shared tab pool, starting it on first call. It returns
// nil, nil when pooling is disabled.
func (r *ChromeRenderer) Pool() (*chrome.Pool, error) {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()

	if r.Config.ChromePoolSize <= 0 {
		return nil, nil
	}
	if r.pool != nil {
		return r.pool, nil
	}
	pool, err := chrome.NewPool(u.Config{PDF: r.Config})
	if err != nil {
		return nil, err
	}
	r.pool = pool
	return r.pool, nil
}

// Close stops the shared browser, if any.
func (r *ChromeRenderer) Close() {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
}

// Render lays out the labels and prints them.
func (r *ChromeRenderer) Render(ctx context.Context, req Request) ([]byte, error) {
	tpl, err := r.Sheets.Lookup(req.SheetType)
	if err != nil {
		return nil, err
	}
	pages := Layout(req.Labels, req.Used, tpl)
	html, err := BuildHTML(pages, tpl, req.Style)
	if err != nil {
		return nil, err
	}

	pool, err := r.Pool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return r.renderOneShot(ctx, html, tpl)
	}
	return r.renderPooled(ctx, pool, html, tpl)
}

func (r *ChromeRenderer) timeout() time.Duration {
	if r.Config.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.Config.TimeoutSecs) * time.Second
}

func (r *ChromeRenderer) renderPooled(ctx context.Context, pool *chrome.Pool, html string, tpl sheets.Template) ([]byte, error) {
	acquireCtx, acquireCancel := context.WithTimeout(ctx, acquireTimeout)
	defer acquireCancel()

	tab, err := pool.Acquire(acquireCtx)
	if err != nil {
		return nil, fmt.Errorf("acquire chrome tab: %w", err)
	}

	tabCtx, cancel := context.WithTimeout(tab.Ctx, r.timeout())
	// Request cancellation reaches the tab as well.
	stop := context.AfterFunc(ctx, cancel)
	pdf, renderErr := printHTML(tabCtx, html, tpl)
	stop()
	cancel()
	pool.Release(tab, renderErr)

	if renderErr != nil && chrome.IsSessionInterrupted(renderErr) {
		u.Warn("Chrome session interrupted; restarting pool", "error", renderErr)
		if err := pool.Restart(); err != nil {
			u.Error("Chrome pool restart failed", "error", err)
		}
	}
	return pdf, renderErr
}

// renderOneShot starts a private browser for a single document.
func (r *ChromeRenderer) renderOneShot(ctx context.Context, html string, tpl sheets.Template) ([]byte, error) {
	tmpDir, err := chrome.CreateProfileDir(r.Config)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chrome.AllocatorOptions(r.Config, tmpDir)...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx, cancel := context.WithTimeout(browserCtx, r.timeout())
	defer cancel()
	return printHTML(runCtx, html, tpl)
}

// printHTML loads html into the tab behind ctx and prints it at the sheet's paper size.
func printHTML(ctx context.Context, html string, tpl sheets.Template) ([]byte, error) {
	var pdf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		waitForFonts(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(tpl.PageWidth).
				WithPaperHeight(tpl.PageHeight).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("print timed out: %w", err)
		}
		return nil, err
	}
	return pdf, nil
}

// waitForFonts blocks until web fonts used by the sheet are loaded, so text
// metrics are final before printing.
func waitForFonts() chromedp.Action {
	var ready bool
	return chromedp.Evaluate(`document.fonts.ready.then(() => true)`, &ready,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		})
}
