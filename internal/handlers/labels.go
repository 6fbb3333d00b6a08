package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"

	"github.com/gofiber/fiber/v2"

	"labelmaker/internal/chrome"
	"labelmaker/internal/labels"
	"labelmaker/internal/render"
	"labelmaker/internal/sheets"
	u "labelmaker/internal/utils"
)

// Client-facing error messages.
const (
	MsgInvalidJSON = "Invalid JSON payload"
	MsgNoData      = "No data provided"
	MsgGeneric     = "Something went wrong. Please try again later."
)

// ErrEmptyDocument is returned when the renderer succeeds without producing bytes.
var ErrEmptyDocument = errors.New("renderer returned an empty document")

// Artifact is a generated PDF and its suggested download name.
type Artifact struct {
	Data     []byte
	FileName string
}

// PoolProvider exposes the Chrome pool behind a renderer.
type PoolProvider interface {
	Pool() (*chrome.Pool, error)
}

// LabelService bundles the collaborators used to turn requests into sheets.
type LabelService struct {
	Extractor labels.TextExtractor
	Resolver  labels.SkipResolver
	Renderer  render.Renderer
	Sheets    *sheets.Registry
	// Chrome is nil when the renderer is not Chrome based.
	Chrome PoolProvider
	PDF    u.PDFConfig
}

// NewLabelService wires the default Chrome-backed pipeline for cfg.
func NewLabelService(cfg u.Config) *LabelService {
	reg := sheets.NewRegistry(sheets.FromConfig(cfg.Sheets)...)
	renderer := render.NewChromeRenderer(reg, cfg.PDF)
	return &LabelService{
		Extractor: labels.DefaultExtractor,
		Resolver:  sheets.NewResolver(reg),
		Renderer:  renderer,
		Sheets:    reg,
		Chrome:    renderer,
		PDF:       cfg.PDF,
	}
}

// Close releases the renderer's browser, if it holds one.
func (svc *LabelService) Close() {
	if c, ok := svc.Renderer.(interface{ Close() }); ok {
		c.Close()
	}
}

// Generate renders job into a fresh PDF buffer. Renderer failures are
// returned wrapped and are never retried.
func (svc *LabelService) Generate(ctx context.Context, job labels.Job) (*Artifact, error) {
	pdf, err := svc.Renderer.Render(ctx, render.Request{
		Labels:    job.Labels,
		Used:      job.Used,
		SheetType: job.SheetType,
		Style: render.Style{
			Border:     job.Border,
			FontSize:   job.FontSize,
			Padding:    job.Padding,
			TextAnchor: job.TextAnchor,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render %s sheet: %w", job.SheetType, err)
	}
	if len(pdf) == 0 {
		return nil, ErrEmptyDocument
	}
	return &Artifact{Data: pdf, FileName: job.FileName + ".pdf"}, nil
}

// HandleGeneratePDF decodes, validates and normalizes the payload, then
// streams the generated PDF. Client errors are answered here; anything else
// is returned to the app error handler.
func (svc *LabelService) HandleGeneratePDF(c *fiber.Ctx) error {
	var payload any
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return respondError(c, fiber.StatusBadRequest, MsgInvalidJSON, err.Error())
	}
	if !labels.Truthy(payload) {
		return respondError(c, fiber.StatusBadRequest, MsgNoData, MsgNoData)
	}
	if msg := labels.Validate(payload); msg != "" {
		return respondError(c, fiber.StatusBadRequest, msg, msg)
	}

	job, err := labels.Normalize(payload.(map[string]any), svc.Extractor, svc.Resolver)
	if err != nil {
		if errors.Is(err, labels.ErrNoLabels) || errors.Is(err, labels.ErrUnsupportedLabel) {
			return respondError(c, fiber.StatusBadRequest, MsgGeneric, err.Error())
		}
		return err
	}

	artifact, err := svc.Generate(c.UserContext(), job)
	if err != nil {
		return err
	}

	u.Info("PDF generated", "file_name", artifact.FileName, "labels", len(job.Labels),
		"sheet_type", job.SheetType, "bytes", len(artifact.Data), "request_id", requestID(c))

	c.Set(fiber.HeaderContentDisposition, contentDisposition(artifact.FileName))
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(artifact.Data)
}

type sheetInfo struct {
	sheets.Template
	PerSheet int `json:"labels_per_sheet"`
}

// HandleListSheets lists the sheet templates accepted as sheet_type.
func (svc *LabelService) HandleListSheets(c *fiber.Ctx) error {
	all := svc.Sheets.All()
	out := make([]sheetInfo, 0, len(all))
	for _, t := range all {
		out = append(out, sheetInfo{Template: t, PerSheet: t.PerSheet()})
	}
	return c.JSON(fiber.Map{"default": labels.DefaultSheetType, "sheets": out})
}

// HandleChromeStats exposes capacity and usage of the Chrome pool.
func (svc *LabelService) HandleChromeStats(c *fiber.Ctx) error {
	var pool *chrome.Pool
	if svc.Chrome != nil {
		p, err := svc.Chrome.Pool()
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Chrome pool unavailable")
		}
		pool = p
	}

	if pool == nil {
		return c.JSON(chrome.Stats{PoolSizeConf: svc.PDF.ChromePoolSize})
	}
	return c.JSON(pool.Stats())
}

// contentDisposition names the download exactly as given. Names that are not
// plain tokens are quoted, and non-ASCII names use RFC 2231 encoding.
func contentDisposition(fileName string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": fileName})
}

// respondError logs reason and writes {"error": msg}.
func respondError(c *fiber.Ctx, status int, msg, reason string) error {
	u.Warn("Request rejected", "path", c.Path(), "status", status, "reason", reason, "request_id", requestID(c))
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func requestID(c *fiber.Ctx) string {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
