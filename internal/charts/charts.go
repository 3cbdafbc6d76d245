// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package charts renders the analytics dashboard charts server-side
// with go-echarts. Each function returns an HTML fragment embedded in
// the admin dashboard template.
package charts

import (
	"bytes"
	"html/template"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/whitstable-shop/site/internal/service"
	"github.com/whitstable-shop/site/internal/store"
)

const chartHeight = "360px"

// CategoryBar renders shop counts per category as a bar chart.
func CategoryBar(rows []store.CategoryCountRow) (template.HTML, error) {
	labels := make([]string, len(rows))
	data := make([]opts.BarData, len(rows))
	for i, row := range rows {
		labels[i] = row.Name
		data[i] = opts.BarData{Value: row.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions("Shops by Category")...)
	bar.SetXAxis(labels)
	bar.AddSeries("Shops", data)

	return render(bar)
}

// ActivityLine renders the weekly audit activity trend as a line chart.
func ActivityLine(points []service.DailyPoint) (template.HTML, error) {
	labels := make([]string, len(points))
	data := make([]opts.LineData, len(points))
	for i, point := range points {
		labels[i] = point.Day
		data[i] = opts.LineData{Value: point.Count}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(globalOptions("Activity (7 days)")...)
	line.SetXAxis(labels)
	line.AddSeries("Events", data)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return render(line)
}

// StatusDonut renders the shop moderation status breakdown as a donut.
func StatusDonut(pending, approved, rejected int64) (template.HTML, error) {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOptions("Shop Status")...)
	pie.AddSeries("Shops", []opts.PieData{
		{Name: "Pending", Value: pending},
		{Name: "Approved", Value: approved},
		{Name: "Rejected", Value: rejected},
	})
	pie.SetSeriesOptions(charts.WithPieChartOpts(opts.PieChart{
		Radius: []string{"40%", "70%"},
	}))

	return render(pie)
}

func globalOptions(title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: chartHeight,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func render(renderable interface{ Render(io.Writer) error }) (template.HTML, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
