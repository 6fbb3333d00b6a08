package labels

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoLabels means the labels resolved to no printable text.
	ErrNoLabels = errors.New("no labels provided")
	// ErrUnsupportedLabel means a label entry has a shape the extractor cannot read.
	ErrUnsupportedLabel = errors.New("unsupported label entry")
)

// TextExtractor turns the raw labels array into one text per entry, in order.
type TextExtractor interface {
	LabelTexts(raw []any) ([]string, error)
}

// TextExtractorFunc adapts a function to TextExtractor.
type TextExtractorFunc func(raw []any) ([]string, error)

func (f TextExtractorFunc) LabelTexts(raw []any) ([]string, error) { return f(raw) }

// DefaultExtractor reads plain strings, numbers, and objects carrying either a
// "text" string or a "lines" array of strings.
var DefaultExtractor TextExtractor = TextExtractorFunc(extractTexts)

func extractTexts(raw []any) ([]string, error) {
	texts := make([]string, 0, len(raw))
	for i, entry := range raw {
		text, err := entryText(entry)
		if err != nil {
			return nil, fmt.Errorf("label %d: %w", i, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func entryText(entry any) (string, error) {
	switch v := entry.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case map[string]any:
		if text, ok := v["text"].(string); ok {
			return text, nil
		}
		if lines, ok := v["lines"].([]any); ok {
			parts := make([]string, 0, len(lines))
			for _, l := range lines {
				s, ok := l.(string)
				if !ok {
					return "", fmt.Errorf("%w: non-string line %T", ErrUnsupportedLabel, l)
				}
				parts = append(parts, s)
			}
			return strings.Join(parts, "\n"), nil
		}
		return "", fmt.Errorf("%w: object without text or lines", ErrUnsupportedLabel)
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedLabel, entry)
}
