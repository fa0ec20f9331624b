package monitor

import (
	"fmt"
	"os"
	"strings"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/peltload/pelt/internal/metrics"
)

// Config holds the run parameters the dashboard displays in its header
// and uses to size the progress gauge.
type Config struct {
	TargetURL string
	Method    string
	Workers   int
	Total     int64         // 0 for duration-bound runs
	Duration  time.Duration // 0 for count-bound runs
	Rate      int
	Timeout   time.Duration
	FPS       int
}

// Dashboard renders a live terminal view of the run. It owns the
// terminal from New until Run returns; Run always restores it before
// returning, including on interrupt.
type Dashboard struct {
	collector *metrics.Collector
	cfg       Config
	interrupt <-chan os.Signal
	start     time.Time

	grid           *ui.Grid
	progressGauge  *widgets.Gauge
	summaryPara    *widgets.Paragraph
	latencyPara    *widgets.Paragraph
	latencySparkle *widgets.SparklineGroup
	statusList     *widgets.List
	errorList      *widgets.List
	latencyHistory []float64
}

// NewDashboard initializes the terminal UI. The caller must ensure Run
// is called so the terminal gets restored.
func NewDashboard(collector *metrics.Collector, cfg Config, interrupt <-chan os.Signal) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("initialize terminal ui: %w", err)
	}
	if cfg.FPS < 1 {
		cfg.FPS = 16
	}

	d := &Dashboard{
		collector:      collector,
		cfg:            cfg,
		interrupt:      interrupt,
		start:          time.Now(),
		latencyHistory: make([]float64, 0, 100),
	}
	d.initWidgets()
	d.setupGrid()
	return d, nil
}

func (d *Dashboard) initWidgets() {
	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Progress"
	d.progressGauge.Percent = 0
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run"
	d.summaryPara.Text = "Starting..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency"
	d.latencyPara.Text = "Min: 0ms\nMean: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	sparkline := widgets.NewSparkline()
	sparkline.Title = "Mean latency (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}
	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Latency over time"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.statusList = widgets.NewList()
	d.statusList.Title = "Status codes"
	d.statusList.Rows = []string{"Awaiting data"}
	d.statusList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.statusList.BorderStyle.Fg = ui.ColorCyan

	d.errorList = widgets.NewList()
	d.errorList.Title = "Errors"
	d.errorList.Rows = []string{"[No errors](fg:green)"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.progressGauge),
		),
		ui.NewRow(0.34,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.36,
			ui.NewCol(0.5, d.statusList),
			ui.NewCol(0.5, d.errorList),
		),
	)
}

// Run drains the outcome stream, redrawing at the configured frame
// rate, until the stream closes or the user quits with q / Ctrl-C / an
// OS interrupt. The terminal is restored before Run returns.
func (d *Dashboard) Run(outcomes <-chan metrics.Outcome) ([]metrics.Outcome, bool) {
	defer ui.Close()

	frame := time.Second / time.Duration(d.cfg.FPS)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()
	var collected []metrics.Outcome

	d.render()
	for {
		select {
		case o, ok := <-outcomes:
			if !ok {
				d.update(int64(len(collected)))
				d.render()
				return collected, false
			}
			d.collector.Record(o)
			collected = append(collected, o)
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				return collected, true
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-d.interrupt:
			return collected, true
		case <-ticker.C:
			d.update(int64(len(collected)))
			d.render()
		}
	}
}

func (d *Dashboard) update(completed int64) {
	elapsed := time.Since(d.start)
	stats := d.collector.Stats(elapsed)

	d.updateProgress(completed, elapsed)

	successRate := 0.0
	if stats.Total > 0 {
		successRate = float64(stats.Successes) / float64(stats.Total) * 100
	}
	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\n%s\nElapsed: %s | Done: %d | Success: %.1f%% | RPS: %.1f",
		d.cfg.TargetURL,
		d.formatParams(),
		elapsed.Round(time.Second),
		stats.Total,
		successRate,
		stats.RequestsPerSec,
	)

	if stats.MeanLatency > 0 {
		d.latencyHistory = append(d.latencyHistory, stats.MeanLatencyMs)
		if len(d.latencyHistory) > 100 {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf(
			"Latency over time | Current: %.2fms | Min: %.2fms | Max: %.2fms",
			stats.MeanLatencyMs, stats.MinLatencyMs, stats.MaxLatencyMs,
		)
	}

	d.latencyPara.Text = fmt.Sprintf(
		"Min:  %.2fms\nMean: %.2fms\nP50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms",
		stats.MinLatencyMs,
		stats.MeanLatencyMs,
		stats.P50LatencyMs,
		stats.P90LatencyMs,
		stats.P99LatencyMs,
	)

	d.statusList.Rows = statusRows(stats.StatusCodes)
	d.errorList.Rows = errorRows(stats.Errors)
}

func (d *Dashboard) updateProgress(completed int64, elapsed time.Duration) {
	switch {
	case d.cfg.Total > 0:
		percent := int(float64(completed) / float64(d.cfg.Total) * 100)
		if percent > 100 {
			percent = 100
		}
		d.progressGauge.Percent = percent
		label := fmt.Sprintf("%d / %d", completed, d.cfg.Total)
		if eta := estimateETA(elapsed, completed, d.cfg.Total); eta > 0 {
			label += fmt.Sprintf(" | ETA %s", eta.Round(time.Second))
		}
		d.progressGauge.Label = label
	case d.cfg.Duration > 0:
		percent := int(float64(elapsed) / float64(d.cfg.Duration) * 100)
		if percent > 100 {
			percent = 100
		}
		d.progressGauge.Percent = percent
		remaining := d.cfg.Duration - elapsed
		if remaining < 0 {
			remaining = 0
		}
		d.progressGauge.Label = fmt.Sprintf("%s remaining", remaining.Round(time.Second))
	}
}

func (d *Dashboard) render() {
	ui.Render(d.grid)
}

func (d *Dashboard) formatParams() string {
	parts := []string{fmt.Sprintf("Workers: %d", d.cfg.Workers)}
	if d.cfg.Method != "" && d.cfg.Method != "GET" {
		parts = append(parts, fmt.Sprintf("Method: %s", d.cfg.Method))
	}
	if d.cfg.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d/s", d.cfg.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}
	if d.cfg.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", d.cfg.Duration))
	}
	if d.cfg.Total > 0 {
		parts = append(parts, fmt.Sprintf("Total: %d", d.cfg.Total))
	}
	if d.cfg.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", d.cfg.Timeout))
	}
	return strings.Join(parts, " | ")
}

func statusRows(codes map[string]int64) []string {
	rows := metrics.SortStatusCounts(codes)
	if len(rows) == 0 {
		return []string{"Awaiting data"}
	}
	if len(rows) > 10 {
		rows = rows[:10]
	}
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		color := "green"
		if row.Code >= "400" {
			color = "red"
		}
		formatted = append(formatted, fmt.Sprintf("[[%s]](fg:%s) %d", row.Code, color, row.Count))
	}
	return formatted
}

func errorRows(errors map[string]int64) []string {
	rows := metrics.SortErrorCounts(errors)
	if len(rows) == 0 {
		return []string{"[No errors](fg:green)"}
	}
	if len(rows) > 10 {
		rows = rows[:10]
	}
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		formatted = append(formatted, fmt.Sprintf("[%d](fg:red) %s", row.Count, row.Class))
	}
	return formatted
}

// estimateETA projects time to completion from the observed rate.
func estimateETA(elapsed time.Duration, completed, total int64) time.Duration {
	if completed <= 0 || total <= completed || elapsed <= 0 {
		return 0
	}
	perRequest := float64(elapsed) / float64(completed)
	return time.Duration(perRequest * float64(total-completed))
}
