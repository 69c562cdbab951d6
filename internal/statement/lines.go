// Package statement parses the positioned text extracted from PDF bank
// statements into raw transaction rows. It consumes only text fragments
// with coordinates and produces the same tabular shape as the CSV path.
package statement

import (
	"math"
	"sort"
	"strings"
)

// TextItem is one fragment of page text with its horizontal and vertical
// position, as delivered by the PDF text layer.
type TextItem struct {
	Text string
	X    float64
	Y    float64
}

// Fragments printed on the same physical line can differ in Y by sub-pixel
// jitter; coordinates are quantized to this tolerance before grouping.
const yTolerance = 2.0

// ExtractLines reconstructs the reading order of a page: fragments are
// bucketed by quantized vertical position, ordered left-to-right within a
// bucket, and buckets are ordered top-to-bottom (descending Y in PDF
// coordinate space).
func ExtractLines(items []TextItem) []string {
	if len(items) == 0 {
		return nil
	}

	type fragment struct {
		x    float64
		text string
	}
	buckets := make(map[float64][]fragment)

	for _, item := range items {
		if item.Text == "" {
			continue
		}
		y := math.Round(item.Y/yTolerance) * yTolerance
		buckets[y] = append(buckets[y], fragment{x: item.X, text: item.Text})
	}

	ys := make([]float64, 0, len(buckets))
	for y := range buckets {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	lines := make([]string, 0, len(ys))
	for _, y := range ys {
		frags := buckets[y]
		sort.SliceStable(frags, func(i, j int) bool { return frags[i].x < frags[j].x })

		parts := make([]string, len(frags))
		for i, f := range frags {
			parts[i] = f.text
		}
		lines = append(lines, strings.TrimSpace(strings.Join(parts, " ")))
	}
	return lines
}
