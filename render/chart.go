package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"evolve/chart"
)

const (
	minChartWidth = 24
	minBarWidth   = 4
	maxLabelWidth = 28
	maxSparkCell  = 4
)

var (
	chartTitleStyle = lipgloss.NewStyle().Bold(true)
	chartDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))

	sparkRunes = []rune("▁▂▃▄▅▆▇█")
)

// Draw renders spec as terminal text no wider than width. When height is
// positive the drawing is centered in a width x height box.
func Draw(spec *chart.Spec, width, height int) string {
	if width < minChartWidth {
		width = minChartWidth
	}

	var lines []string
	if t := spec.TitleText(); t != "" {
		lines = append(lines, chartTitleStyle.Render(runewidth.Truncate(t, width, "…")), "")
	}

	switch {
	case spec.Type.IsCircular():
		lines = append(lines, drawShares(spec, width)...)
	case spec.Type == chart.TypeLine:
		lines = append(lines, drawLines(spec, width)...)
	default:
		lines = append(lines, drawBars(spec, width)...)
	}

	if legend := drawLegend(spec, width); len(legend) > 0 {
		lines = append(lines, "")
		lines = append(lines, legend...)
	}
	if axes := axisLine(spec); axes != "" {
		lines = append(lines, chartDimStyle.Render(runewidth.Truncate(axes, width, "…")))
	}

	out := strings.Join(lines, "\n")
	if height > 0 {
		out = lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, out)
	}
	return out
}

func labelAt(spec *chart.Spec, i int) string {
	if i < len(spec.Data.Labels) {
		return spec.Data.Labels[i]
	}
	return strconv.Itoa(i + 1)
}

func pointCount(spec *chart.Spec) int {
	n := len(spec.Data.Labels)
	for _, ds := range spec.Data.Datasets {
		if len(ds.Data) > n {
			n = len(ds.Data)
		}
	}
	return n
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func labelColumn(spec *chart.Spec, n, width int) int {
	w := 0
	for i := 0; i < n; i++ {
		if lw := runewidth.StringWidth(labelAt(spec, i)); lw > w {
			w = lw
		}
	}
	return min(w, maxLabelWidth, width/3)
}

func padLabel(label string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(label, width, "…"), width)
}

func drawBars(spec *chart.Spec, width int) []string {
	n := pointCount(spec)
	labelWidth := labelColumn(spec, n, width)

	valueWidth := 0
	maxVal := 0.0
	for _, ds := range spec.Data.Datasets {
		for _, v := range ds.Data {
			valueWidth = max(valueWidth, len(formatValue(v)))
			maxVal = math.Max(maxVal, v)
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	barSpace := max(width-labelWidth-valueWidth-2, minBarWidth)
	multi := len(spec.Data.Datasets) > 1

	var lines []string
	for i := 0; i < n; i++ {
		for j, ds := range spec.Data.Datasets {
			if i >= len(ds.Data) {
				continue
			}
			label := ""
			if j == 0 {
				label = labelAt(spec, i)
			}

			v := ds.Data[i]
			length := 0
			if v > 0 {
				length = max(int(math.Round(v/maxVal*float64(barSpace))), 1)
			}

			color := colorFor(ds.BackgroundColor, i, j)
			if len(ds.BackgroundColor) == 0 {
				color = colorFor(ds.BorderColor, i, j)
			}
			bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", length))

			lines = append(lines, padLabel(label, labelWidth)+" "+bar+strings.Repeat(" ", barSpace-length)+" "+formatValue(v))
		}
		if multi && i < n-1 {
			lines = append(lines, "")
		}
	}
	return lines
}

func drawLines(spec *chart.Spec, width int) []string {
	nameWidth := 0
	for _, ds := range spec.Data.Datasets {
		nameWidth = max(nameWidth, runewidth.StringWidth(ds.Label))
	}
	nameWidth = min(nameWidth, maxLabelWidth, width/3)

	var lines []string
	for j, ds := range spec.Data.Datasets {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range ds.Data {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		rng := fmt.Sprintf("%s..%s", formatValue(lo), formatValue(hi))

		space := max(width-nameWidth-len(rng)-2, len(ds.Data))
		cell := max(min(space/max(len(ds.Data), 1), maxSparkCell), 1)

		var spark strings.Builder
		for _, v := range ds.Data {
			idx := len(sparkRunes) - 1
			if hi > lo {
				idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkRunes)-1)))
			}
			spark.WriteString(strings.Repeat(string(sparkRunes[idx]), cell))
		}

		color := colorFor(ds.BorderColor, 0, j)
		if len(ds.BorderColor) == 0 {
			color = colorFor(ds.BackgroundColor, 0, j)
		}
		row := lipgloss.NewStyle().Foreground(color).Render(spark.String())
		prefix := ""
		if nameWidth > 0 {
			prefix = padLabel(ds.Label, nameWidth) + " "
		}
		lines = append(lines, prefix+row+" "+chartDimStyle.Render(rng))
	}

	if n := pointCount(spec); n > 0 {
		first, last := labelAt(spec, 0), labelAt(spec, n-1)
		span := first
		if n > 1 {
			span = first + " … " + last
		}
		indent := ""
		if nameWidth > 0 {
			indent = strings.Repeat(" ", nameWidth+1)
		}
		lines = append(lines, indent+chartDimStyle.Render(runewidth.Truncate(span, max(width-len(indent), 1), "…")))
	}
	return lines
}

func drawShares(spec *chart.Spec, width int) []string {
	n := pointCount(spec)
	labelWidth := labelColumn(spec, n, width)
	const pctWidth = 6
	barSpace := max(width-labelWidth-pctWidth-4, minBarWidth)

	var lines []string
	for j, ds := range spec.Data.Datasets {
		if len(spec.Data.Datasets) > 1 && ds.Label != "" {
			if j > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, chartDimStyle.Render(runewidth.Truncate(ds.Label, width, "…")))
		}

		total := 0.0
		for _, v := range ds.Data {
			total += v
		}

		for i, v := range ds.Data {
			share := 0.0
			if total > 0 {
				share = v / total
			}
			length := min(max(int(math.Round(share*float64(barSpace))), 0), barSpace)
			color := colorFor(ds.BackgroundColor, i, i)
			style := lipgloss.NewStyle().Foreground(color)

			pct := fmt.Sprintf("%5.1f%%", share*100)
			lines = append(lines, style.Render("■")+" "+padLabel(labelAt(spec, i), labelWidth)+" "+
				style.Render(strings.Repeat("█", length))+strings.Repeat(" ", barSpace-length)+" "+pct)
		}
	}
	return lines
}

// drawLegend lists datasets by color. Circular charts already name every
// slice on its own row, so they get no legend.
func drawLegend(spec *chart.Spec, width int) []string {
	if !spec.LegendVisible() || spec.Type.IsCircular() {
		return nil
	}

	var entries []string
	for j, ds := range spec.Data.Datasets {
		if ds.Label == "" {
			continue
		}
		color := colorFor(ds.BackgroundColor, 0, j)
		if spec.Type == chart.TypeLine && len(ds.BorderColor) > 0 {
			color = colorFor(ds.BorderColor, 0, j)
		}
		entries = append(entries, lipgloss.NewStyle().Foreground(color).Render("■")+" "+ds.Label)
	}
	if len(entries) == 0 {
		return nil
	}

	joined := strings.Join(entries, "  ")
	if lipgloss.Width(joined) <= width {
		return []string{joined}
	}
	return entries
}

func axisLine(spec *chart.Spec) string {
	x, y := spec.AxisTitle("x"), spec.AxisTitle("y")
	switch {
	case x != "" && y != "":
		return "x: " + x + "  y: " + y
	case x != "":
		return "x: " + x
	case y != "":
		return "y: " + y
	}
	return ""
}
