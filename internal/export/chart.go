package export

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/stats"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when a chart would have no bars.
var ErrNoData = errors.New("nothing to chart")

// Charts lists the chart names served by the API.
var Charts = []string{"department", "cgpa", "companies"}

const (
	barWidth   = 40
	barSpacing = 12
	maxCompany = 20
)

var (
	colorPlaced   = drawing.ColorFromHex("2e7d32")
	colorUnplaced = drawing.ColorFromHex("c62828")
	colorNeutral  = drawing.ColorFromHex("1565c0")
)

func renderer(format string) (chart.RendererProvider, error) {
	switch format {
	case "", "png":
		return chart.PNG, nil
	case "svg":
		return chart.SVG, nil
	}
	return nil, fmt.Errorf("unknown chart format %q", format)
}

func barChart(title, yName string, bars []chart.Value, w io.Writer, format string) error {
	if len(bars) == 0 {
		return ErrNoData
	}
	rp, err := renderer(format)
	if err != nil {
		return err
	}
	top := 1.0
	for _, b := range bars {
		top = max(top, b.Value)
	}
	c := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      max(640, len(bars)*(barWidth+barSpacing)+120),
		Height:     420,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Name:  yName,
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
	return c.Render(rp, w)
}

func bar(v float64, label string, col drawing.Color) chart.Value {
	return chart.Value{
		Value: v,
		Label: label,
		Style: chart.Style{FillColor: col, StrokeColor: col},
	}
}

// DepartmentChart draws placement rate per department.
func DepartmentChart(w io.Writer, format string, depts []stats.DepartmentStats) error {
	bars := make([]chart.Value, 0, len(depts))
	for _, d := range depts {
		bars = append(bars, bar(d.PlacementRate, d.Department, colorPlaced))
	}
	return barChart("Placement rate by department", "%", bars, w, format)
}

// CGPAChart draws the placed and unplaced counts per CGPA bin side by side.
func CGPAChart(w io.Writer, format string, dist stats.CGPAStats) error {
	var bars []chart.Value
	for i, label := range dist.Bins {
		bars = append(bars,
			bar(float64(dist.Placed[i]), label+" P", colorPlaced),
			bar(float64(dist.Unplaced[i]), label+" U", colorUnplaced),
		)
	}
	return barChart("CGPA distribution", "students", bars, w, format)
}

// CompanyChart draws the companies with the most hires.
func CompanyChart(w io.Writer, format string, companies []sim.CompanyOutcome) error {
	sorted := append([]sim.CompanyOutcome(nil), companies...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Hired > sorted[j].Hired })
	if len(sorted) > maxCompany {
		sorted = sorted[:maxCompany]
	}
	bars := make([]chart.Value, 0, len(sorted))
	for _, c := range sorted {
		bars = append(bars, bar(float64(c.Hired), c.CompanyName, colorNeutral))
	}
	return barChart("Hires by company", "hires", bars, w, format)
}
