package text

import (
	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"golang.org/x/text/unicode/bidi"
)

// run is a contiguous range of runes with one direction and script,
// in visual order.
type run struct {
	start, end int // rune indices, end exclusive
	dir        di.Direction
	script     language.Script
}

// visualRuns splits runes into directional runs in visual order. If the
// bidi algorithm rejects the input, the whole text is one LTR run.
func visualRuns(s string, runes []rune) []run {
	whole := []run{{start: 0, end: len(runes), dir: di.DirectionLTR, script: detectScript(runes)}}

	var p bidi.Paragraph
	if _, err := p.SetString(s); err != nil {
		return whole
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return whole
	}

	runs := make([]run, 0, ordering.NumRuns())
	for i := 0; i < ordering.NumRuns(); i++ {
		r := ordering.Run(i)
		// Pos returns rune indices with an inclusive end.
		start, end := r.Pos()
		end++
		if start < 0 || end > len(runes) || start >= end {
			continue
		}
		dir := di.DirectionLTR
		if r.Direction() == bidi.RightToLeft {
			dir = di.DirectionRTL
		}
		runs = append(runs, run{
			start:  start,
			end:    end,
			dir:    dir,
			script: detectScript(runes[start:end]),
		})
	}
	if len(runs) == 0 {
		return whole
	}
	return runs
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		if s := language.LookupScript(r); s != language.Common && s != language.Inherited {
			return s
		}
	}
	return language.Latin
}
