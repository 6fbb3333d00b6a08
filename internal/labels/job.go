package labels

import (
	"fmt"
	"strings"

	"labelmaker/internal/sheets"
)

// Defaults applied to absent or null optional fields.
const (
	DefaultSheetType  = "LCRY-1700"
	DefaultFontSize   = 12.0
	DefaultPadding    = 1.75
	DefaultTextAnchor = "middle"
	DefaultFileName   = "labels"
)

// Job is a fully defaulted label generation request.
type Job struct {
	Labels     []string
	SheetType  string
	SkipLabels *string
	StartLabel *string
	Border     bool
	FontSize   float64
	Padding    float64
	TextAnchor string
	FileName   string
	Used       sheets.UsedPositions
}

// SkipResolver maps the raw skip and start fields onto used sheet positions.
type SkipResolver interface {
	Resolve(skipLabels *string, sheetType string, startLabel *string) (sheets.UsedPositions, error)
}

// Normalize builds a Job from a payload that passed Validate. It returns
// ErrNoLabels when every label text is blank, ErrUnsupportedLabel for label
// entries the extractor rejects, and a wrapped resolver error otherwise.
func Normalize(payload map[string]any, extractor TextExtractor, resolver SkipResolver) (Job, error) {
	raw, _ := payload[FieldLabels].([]any)
	if len(raw) == 0 {
		return Job{}, ErrNoLabels
	}

	texts, err := extractor.LabelTexts(raw)
	if err != nil {
		return Job{}, err
	}
	if !anyPrintable(texts) {
		return Job{}, ErrNoLabels
	}

	job := Job{
		Labels:     texts,
		SheetType:  stringOr(payload, FieldSheetType, DefaultSheetType),
		SkipLabels: optionalString(payload, FieldSkipLabels),
		StartLabel: optionalString(payload, FieldStartLabel),
		Border:     boolOr(payload, FieldBorder, false),
		FontSize:   numberOr(payload, FieldFontSize, DefaultFontSize),
		Padding:    numberOr(payload, FieldPadding, DefaultPadding),
		TextAnchor: stringOr(payload, FieldTextAnchor, DefaultTextAnchor),
		FileName:   stringOr(payload, FieldFileName, DefaultFileName),
	}

	used, err := resolver.Resolve(job.SkipLabels, job.SheetType, job.StartLabel)
	if err != nil {
		return Job{}, fmt.Errorf("resolve skipped positions: %w", err)
	}
	job.Used = used
	return job, nil
}

func anyPrintable(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}

func stringOr(payload map[string]any, field, def string) string {
	if s, ok := payload[field].(string); ok && s != "" {
		return s
	}
	return def
}

func optionalString(payload map[string]any, field string) *string {
	if s, ok := payload[field].(string); ok {
		return &s
	}
	return nil
}

func boolOr(payload map[string]any, field string, def bool) bool {
	if b, ok := payload[field].(bool); ok {
		return b
	}
	return def
}

func numberOr(payload map[string]any, field string, def float64) float64 {
	if n, ok := payload[field].(float64); ok {
		return n
	}
	return def
}
