package viz

import (
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/placesim/internal/stats"
)

const chartHeight = 8

// plotable pads a single point so asciigraph has a line to draw.
func plotable(series []float64) []float64 {
	if len(series) == 1 {
		return []float64{series[0], series[0]}
	}
	return series
}

func axisLabels(labels []string) string {
	return Subtle.Render("x: " + strings.Join(labels, "  "))
}

// DepartmentChart plots placed students per department, in table order.
func DepartmentChart(depts []stats.DepartmentStats) string {
	if len(depts) == 0 {
		return Subtle.Render("no departments")
	}
	placed := make([]float64, len(depts))
	labels := make([]string, len(depts))
	for i, d := range depts {
		placed[i] = float64(d.Placed)
		labels[i] = d.Department
	}
	chart := asciigraph.Plot(plotable(placed),
		asciigraph.Height(chartHeight),
		asciigraph.Width(max(len(depts)*4, 30)),
		asciigraph.LowerBound(0),
		asciigraph.Precision(0),
		asciigraph.Caption("placed by department"),
	)
	return chart + "\n" + axisLabels(labels)
}

// CGPAChart plots the placed and unplaced CGPA histograms together.
func CGPAChart(dist stats.CGPAStats) string {
	if len(dist.Bins) == 0 {
		return Subtle.Render("no CGPA data")
	}
	toFloat := func(xs []int) []float64 {
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = float64(x)
		}
		return plotable(out)
	}
	chart := asciigraph.PlotMany(
		[][]float64{toFloat(dist.Placed), toFloat(dist.Unplaced)},
		asciigraph.Height(chartHeight),
		asciigraph.Width(len(dist.Bins)*5),
		asciigraph.LowerBound(0),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.Caption("CGPA: placed (green) vs unplaced (red)"),
	)
	return chart + "\n" + axisLabels(dist.Bins)
}

// Sparkline draws a compact trend, e.g. placements per ensemble run.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	return asciigraph.Plot(plotable(values), asciigraph.Height(3), asciigraph.Width(width), asciigraph.Precision(0))
}
