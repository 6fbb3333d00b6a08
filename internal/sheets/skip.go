package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPosition is returned for malformed or out-of-range positions.
var ErrInvalidPosition = errors.New("invalid label position")

// UsedPositions is the set of 0-based slots on the first sheet that already
// carry a label.
type UsedPositions map[int]struct{}

// Contains reports whether slot is used.
func (u UsedPositions) Contains(slot int) bool {
	_, ok := u[slot]
	return ok
}

// Resolver turns raw skip and start specifications into UsedPositions.
//
// Positions are 1-based in reading order and may be written as a number ("7")
// or as a cell ("B3": row B, column 3). skip_labels is a comma separated list
// of positions and inclusive ranges ("1-5, C2-C4"); start_label is a single
// position before which every slot counts as used.
type Resolver struct {
	Sheets *Registry
}

// NewResolver returns a resolver over the given registry.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{Sheets: reg}
}

// Resolve computes the used positions for one job.
func (r *Resolver) Resolve(skipLabels *string, sheetType string, startLabel *string) (UsedPositions, error) {
	tpl, err := r.Sheets.Lookup(sheetType)
	if err != nil {
		return nil, err
	}

	used := UsedPositions{}
	if skipLabels != nil {
		for _, token := range strings.Split(*skipLabels, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			from, to, err := parseRange(token, tpl)
			if err != nil {
				return nil, err
			}
			for p := from; p <= to; p++ {
				used[p-1] = struct{}{}
			}
		}
	}

	if startLabel != nil && strings.TrimSpace(*startLabel) != "" {
		start, err := parsePosition(strings.TrimSpace(*startLabel), tpl)
		if err != nil {
			return nil, err
		}
		for p := 1; p < start; p++ {
			used[p-1] = struct{}{}
		}
	}
	return used, nil
}

func parseRange(token string, tpl Template) (int, int, error) {
	lo, hi, isRange := strings.Cut(token, "-")
	from, err := parsePosition(strings.TrimSpace(lo), tpl)
	if err != nil {
		return 0, 0, err
	}
	if !isRange {
		return from, from, nil
	}
	to, err := parsePosition(strings.TrimSpace(hi), tpl)
	if err != nil {
		return 0, 0, err
	}
	if from > to {
		from, to = to, from
	}
	return from, to, nil
}

// parsePosition returns the 1-based position addressed by s.
func parsePosition(s string, tpl Template) (int, error) {
	s = strings.ToUpper(s)
	split := 0
	for split < len(s) && s[split] >= 'A' && s[split] <= 'Z' {
		split++
	}

	if split == 0 {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
		}
		if n < 1 || n > tpl.PerSheet() {
			return 0, fmt.Errorf("%w: %d outside 1-%d on %s", ErrInvalidPosition, n, tpl.PerSheet(), tpl.Name)
		}
		return n, nil
	}

	row := 0
	for _, ch := range s[:split] {
		row = row*26 + int(ch-'A'+1)
		if row > tpl.Rows {
			break
		}
	}
	col, err := strconv.Atoi(s[split:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	if row > tpl.Rows || col < 1 || col > tpl.Columns {
		return 0, fmt.Errorf("%w: %s outside %d rows x %d columns on %s", ErrInvalidPosition, s, tpl.Rows, tpl.Columns, tpl.Name)
	}
	return (row-1)*tpl.Columns + col, nil
}
