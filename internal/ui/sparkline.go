package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// SparklineWidth is the default width of the live flux sparkline.
const SparklineWidth = 60

// sparklineBlocks are the Unicode block characters for sparkline (0 = lowest, 7 = highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Flux gradient: deep dip (dark blue) → mid (blue) → baseline (cyan).
var (
	fluxColorLow, _  = colorful.Hex("#1b2b4b")
	fluxColorMid, _  = colorful.Hex("#3478c0")
	fluxColorHigh, _ = colorful.Hex("#8be9ff")
)

// fluxColor returns the hex colour for a normalized flux level t in [0, 1].
func fluxColor(t float64) string {
	t = clamp(t, 0, 1)
	if t < 0.5 {
		return fluxColorLow.BlendLab(fluxColorMid, t*2).Clamped().Hex()
	}
	return fluxColorMid.BlendLab(fluxColorHigh, (t-0.5)*2).Clamped().Hex()
}

// renderSparkline renders values as one row of blocks scaled between lo and hi.
func renderSparkline(values []float64, lo, hi float64) string {
	if len(values) == 0 {
		return ""
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	for _, v := range values {
		t := clamp((v-lo)/span, 0, 1)
		idx := int(t * 7)
		if idx > 7 {
			idx = 7
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fluxColor(t)))
		sb.WriteString(style.Render(string(sparklineBlocks[idx])))
	}
	return sb.String()
}

// resample averages values into width buckets.
func resample(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}

	result := make([]float64, width)
	perBucket := float64(len(values)) / float64(width)

	for i := 0; i < width; i++ {
		start := int(float64(i) * perBucket)
		end := int(float64(i+1) * perBucket)
		if start >= len(values) {
			start = len(values) - 1
		}
		if end <= start {
			end = start + 1
		}
		if end > len(values) {
			end = len(values)
		}

		sum := 0.0
		count := 0
		for j := start; j < end; j++ {
			sum += values[j]
			count++
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}

	return result
}

// plotRows draws values as a dot plot rows high, top row = hi. Each column
// holds one value.
func plotRows(values []float64, rows int, lo, hi float64) []string {
	if rows < 2 {
		rows = 2
	}
	grid := make([][]rune, rows)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", len(values)))
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	for x, v := range values {
		t := clamp((v-lo)/span, 0, 1)
		y := rows - 1 - int(t*float64(rows-1)+0.5)
		grid[y][x] = '•'
	}

	out := make([]string, rows)
	for y, row := range grid {
		out[y] = string(row)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
