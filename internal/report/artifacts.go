package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"golang.org/x/sync/errgroup"
)

// ErrNothingToChart is returned when no city has both a brand price and a median.
var ErrNothingToChart = errors.New("report: no city with brand price and median")

// Artifacts lists the files written for a report. Chart is empty when there was
// nothing to plot or the chart could not be rendered; ChartErr then holds the
// render failure, if any.
type Artifacts struct {
	CSV      string
	Chart    string
	Summary  string
	ChartErr error
}

// WriteArtifacts renders the CSV, chart and summary concurrently into dir.
// A chart failure never discards the CSV or the summary.
func WriteArtifacts(ctx context.Context, rep *Report, dir, prefix string) (Artifacts, error) {
	if err := ctx.Err(); err != nil {
		return Artifacts{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("create report dir: %w", err)
	}
	stem := filepath.Join(dir, fmt.Sprintf("%s-%s", prefix, rep.CheckIn))
	out := Artifacts{
		CSV:     stem + ".csv",
		Chart:   stem + ".png",
		Summary: stem + "-summary.txt",
	}

	var g errgroup.Group
	g.Go(func() error {
		return writeFile(out.CSV, func(w io.Writer) error { return WriteCSV(w, rep) })
	})
	g.Go(func() error {
		return writeFile(out.Summary, func(w io.Writer) error {
			_, err := io.WriteString(w, rep.Text())
			return err
		})
	})
	var chartErr error
	g.Go(func() error {
		chartErr = writeFile(out.Chart, func(w io.Writer) error { return WriteChart(w, rep) })
		return nil
	})
	if err := g.Wait(); err != nil {
		return Artifacts{}, err
	}
	if chartErr != nil {
		_ = os.Remove(out.Chart)
		out.Chart = ""
		if !errors.Is(chartErr, ErrNothingToChart) {
			out.ChartErr = chartErr
		}
	}
	return out, nil
}

// WriteCSV writes the header and every row.
func WriteCSV(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	if err := cw.WriteAll(rep.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteChart renders a PNG bar chart with the brand price and the city median
// side by side for every city that has both.
func WriteChart(w io.Writer, rep *Report) error {
	var (
		bars    []chart.Value
		ceiling float64
	)
	for _, l := range rep.Lines {
		bp, okB := l.BrandPrice.Float64()
		md, okM := l.Median.Float64()
		if !l.HasBrand || !okB || !okM {
			continue
		}
		bars = append(bars,
			chart.Value{Label: l.City, Value: bp, Style: chart.Style{FillColor: chart.ColorBlue, StrokeColor: chart.ColorBlue}},
			chart.Value{Label: "median", Value: md, Style: chart.Style{FillColor: chart.ColorAlternateGray, StrokeColor: chart.ColorAlternateGray}},
		)
		ceiling = max(ceiling, bp, md)
	}
	if len(bars) == 0 {
		return ErrNothingToChart
	}
	// A fixed y-range keeps a single city, or equal prices, renderable.
	if ceiling <= 0 {
		ceiling = 1
	}

	graph := chart.BarChart{
		Title:      fmt.Sprintf("%s vs city median, check-in %s (SAR)", rep.Brand, rep.CheckIn),
		Width:      max(640, 120*len(bars)),
		Height:     480,
		BarWidth:   40,
		BarSpacing: 40,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis: chart.YAxis{
			Name: "SAR",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
			Range: &chart.ContinuousRange{Min: 0, Max: ceiling * 1.15},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Filter keeps the lines whose city matches one of names, case-insensitively.
func (r *Report) Filter(names ...string) *Report {
	if len(names) == 0 {
		return r
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}
	out := *r
	out.Lines = nil
	out.Rows = nil
	for _, l := range r.Lines {
		if want[strings.ToLower(l.City)] {
			out.Lines = append(out.Lines, l)
		}
	}
	for _, row := range r.Rows {
		if want[strings.ToLower(row[1])] {
			out.Rows = append(out.Rows, row)
		}
	}
	return &out
}
