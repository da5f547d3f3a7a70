package loadgen

import (
	"fmt"
	"os"
	"sort"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

const plotTailSize = 48

type dashboard struct {
	st          *stats
	jobProducer JobProducer

	rates       map[string][]float64
	rpsPlot     *widgets.Plot
	latencyPlot *widgets.Plot

	interval time.Duration
	exited   chan struct{}
	draw     func()
	closeUI  func()
}

func newDashboard(st *stats, jobProducer JobProducer) (*dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := &dashboard{
		st:          st,
		jobProducer: jobProducer,
		rates:       make(map[string][]float64, 10),
		interval:    500 * time.Millisecond,
		exited:      make(chan struct{}),
		closeUI:     ui.Close,
	}

	d.draw = d.render

	d.rpsPlot = widgets.NewPlot()
	d.rpsPlot.SetRect(0, 7, 100, 15)
	d.rpsPlot.ShowAxes = false
	d.rpsPlot.HorizontalScale = 2

	d.latencyPlot = widgets.NewPlot()
	d.latencyPlot.SetRect(0, 15, 100, 35)
	d.latencyPlot.Data = [][]float64{0: {}, 1: {}}
	d.latencyPlot.HorizontalScale = 2
	d.latencyPlot.Title = "Min/Max Latency, ms"

	return d, nil
}

func (d *dashboard) pollEvents(exit chan os.Signal) {
	for e := range ui.PollEvents() {
		switch e.ID {
		case "q", "<C-c>":
			exit <- os.Interrupt

			return
		}
	}
}

// loop renders until stopped is closed, exited is closed after the last render returns.
func (d *dashboard) loop(stopped chan struct{}) {
	defer close(d.exited)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.draw()
		case <-stopped:
			return
		}
	}
}

func (d *dashboard) render() {
	st := d.st

	drawables := make([]ui.Drawable, 0, 4)
	elaDur := time.Since(st.start)
	ela := elaDur.Seconds()
	reqRate := float64(st.roundTripHist.Count) / ela

	latencyPercentiles := widgets.NewParagraph()
	latencyPercentiles.Title = "Round trip latency, ms"
	latencyPercentiles.Text = ""

	latencyPercentiles.Text += fmt.Sprintf("100%%: %fms\n", st.roundTripPrecise.Percentile(100))
	latencyPercentiles.Text += fmt.Sprintf("99%%: %fms\n", st.roundTripPrecise.Percentile(99))
	latencyPercentiles.Text += fmt.Sprintf("95%%: %fms\n", st.roundTripPrecise.Percentile(95))
	latencyPercentiles.Text += fmt.Sprintf("90%%: %fms\n", st.roundTripPrecise.Percentile(90))
	latencyPercentiles.Text += fmt.Sprintf("50%%: %fms\n", st.roundTripPrecise.Percentile(50))
	latencyPercentiles.SetRect(0, 0, 30, 7)

	drawables = append(drawables, latencyPercentiles)

	counts := d.jobProducer.RequestCounts()
	if counts == nil {
		counts = make(map[string]int, 1)
	}

	counts["tot"] = st.roundTripHist.Count

	requestCounters := widgets.NewParagraph()
	requestCounters.Title = "Request Count (q to stop)"
	requestCounters.Text = ""
	requestCounters.SetRect(30, 0, 100, 7)

	drawables = append(drawables, requestCounters)

	d.rpsPlot.DataLabels = make([]string, 0, len(counts))
	d.rpsPlot.Data = make([][]float64, 0, len(counts))

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, name := range keys {
		cnt := counts[name]
		requestCounters.Text += fmt.Sprintf("%s: %d\n", name, cnt)

		d.rates[name] = append(d.rates[name], float64(cnt)/ela)
		if len(d.rates[name]) < 2 {
			continue
		}

		if len(d.rates[name]) > plotTailSize {
			d.rates[name] = d.rates[name][len(d.rates[name])-plotTailSize:]
		}

		d.rpsPlot.DataLabels = append(d.rpsPlot.DataLabels, name)
		d.rpsPlot.Data = append(d.rpsPlot.Data, d.rates[name])
	}

	d.rpsPlot.Title = "Requests per second:" + fmt.Sprintf("%.2f (total requests: %d, time passed: %s)\n",
		reqRate,
		st.roundTripHist.Count,
		elaDur.String(),
	)

	st.roundTripRolling.Lock()
	d.latencyPlot.Data[0] = append(d.latencyPlot.Data[0], st.roundTripRolling.Min)
	d.latencyPlot.Data[1] = append(d.latencyPlot.Data[1], st.roundTripRolling.Max)
	st.roundTripRolling.Buckets = nil
	st.roundTripRolling.Count = 0
	st.roundTripRolling.Min = 0
	st.roundTripRolling.Max = 0
	st.roundTripRolling.Unlock()

	if len(d.latencyPlot.Data[0]) > plotTailSize {
		d.latencyPlot.Data[0] = d.latencyPlot.Data[0][len(d.latencyPlot.Data[0])-plotTailSize:]
		d.latencyPlot.Data[1] = d.latencyPlot.Data[1][len(d.latencyPlot.Data[1])-plotTailSize:]
	}

	if len(d.latencyPlot.Data[0]) > 1 {
		drawables = append(drawables, d.latencyPlot)
	}

	if len(d.rpsPlot.Data) > 0 {
		drawables = append(drawables, d.rpsPlot)
	}

	ui.Render(drawables...)
}

// close waits for loop to exit and releases the terminal.
func (d *dashboard) close() {
	<-d.exited
	d.closeUI()
}
