package chart

import (
	"fmt"
	"math"
	"sync"

	"github.com/quantclass/chartsim/internal/market"
)

// Config holds the static geometry parameters.
type Config struct {
	// Window is the number of trailing candles mapped onto the plot.
	Window int
	// MarginRatio pads the vertical price range at both ends.
	MarginRatio float64
	// PadLeft/PadRight reserve horizontal gutters for axis labels.
	PadLeft  float64
	PadRight float64
	// VolumePaneRatio is the share of viewport height given to volume.
	VolumePaneRatio float64
	// GridLines is the number of horizontal price gridlines.
	GridLines int
}

// PositionMarker describes the open position to draw, if any.
type PositionMarker struct {
	Side  string
	Price float64
}

// Hover is the candle under the pointer.
type Hover struct {
	Index  int           `json:"index"`
	Candle market.Candle `json:"candle"`
	Price  float64       `json:"price"`
}

// Renderer maps a visible window of candles into pixel space. It holds
// only viewport size and pointer state; every scale is recomputed from
// scratch on each layout so a resize or window change can never leave
// stale geometry behind.
type Renderer struct {
	cfg Config

	mu        sync.Mutex
	width     float64
	height    float64
	pointerX  float64
	pointerY  float64
	pointerIn bool
}

func NewRenderer(cfg Config) *Renderer {
	if cfg.Window <= 0 {
		cfg.Window = 80
	}
	if cfg.GridLines <= 0 {
		cfg.GridLines = 4
	}
	return &Renderer{cfg: cfg}
}

// Resize records the new viewport. The next layout recomputes everything.
func (r *Renderer) Resize(width, height float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = width
	r.height = height
}

// SetWindow changes how many trailing candles are visible. Non-positive
// values are ignored. Takes effect on the next layout.
func (r *Renderer) SetWindow(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n > 0 {
		r.cfg.Window = n
	}
}

// PointerMove records the pointer and resolves the candle under it.
// The derived slot index is clamped to the visible window. The second
// return is false when the pointer is outside the plot rectangle or the
// window is empty.
func (r *Renderer) PointerMove(candles []market.Candle, x, y float64) (Hover, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointerX = x
	r.pointerY = y
	r.pointerIn = true

	l, ok := r.layoutLocked(candles)
	if !ok || !l.Plot.contains(x, y) {
		return Hover{}, false
	}
	idx := l.IndexAt(x)
	return Hover{Index: idx, Candle: l.window[idx], Price: l.ToPrice(y)}, true
}

// PointerLeave clears hover state immediately; the next frame carries no
// crosshair.
func (r *Renderer) PointerLeave() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointerIn = false
}

// Layout computes the full coordinate mapping for the given series. It
// returns false on degenerate input (empty window or collapsed viewport),
// in which case callers render a background-only frame.
func (r *Renderer) Layout(candles []market.Candle) (Layout, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layoutLocked(candles)
}

func (r *Renderer) layoutLocked(candles []market.Candle) (Layout, bool) {
	if r.width <= 0 || r.height <= 0 || len(candles) == 0 {
		return Layout{}, false
	}

	window := candles
	if len(window) > r.cfg.Window {
		window = window[len(window)-r.cfg.Window:]
	}

	plotW := r.width - r.cfg.PadLeft - r.cfg.PadRight
	volH := r.height * r.cfg.VolumePaneRatio
	plotH := r.height - volH
	if plotW <= 0 || plotH <= 0 {
		return Layout{}, false
	}

	priceMin, priceMax := math.Inf(1), math.Inf(-1)
	volMax := 0.0
	for _, c := range window {
		priceMin = math.Min(priceMin, c.Low)
		priceMax = math.Max(priceMax, c.High)
		volMax = math.Max(volMax, c.Volume)
	}
	priceMin *= 1 - r.cfg.MarginRatio
	priceMax *= 1 + r.cfg.MarginRatio
	if priceMax <= priceMin {
		// perfectly flat window; force a unit span so the maps invert
		priceMax = priceMin + 1
	}

	return Layout{
		Plot:     Rect{X: r.cfg.PadLeft, Y: 0, W: plotW, H: plotH},
		Volume:   Rect{X: r.cfg.PadLeft, Y: plotH, W: plotW, H: volH},
		PriceMin: priceMin,
		PriceMax: priceMax,
		VolMax:   volMax,
		slotW:    plotW / float64(len(window)),
		window:   window,
	}, true
}

// Layout is one consistent coordinate mapping: forward maps ToX/ToY and
// the exact inverse ToPrice, valid until the next recompute.
type Layout struct {
	Plot     Rect
	Volume   Rect
	PriceMin float64
	PriceMax float64
	VolMax   float64

	slotW  float64
	window []market.Candle
}

// WindowLen returns the number of candles in the visible window.
func (l Layout) WindowLen() int { return len(l.window) }

// ToX maps a window slot index to the slot's center x.
func (l Layout) ToX(i int) float64 {
	return l.Plot.X + (float64(i)+0.5)*l.slotW
}

// ToY maps a price to a y pixel inside the plot.
func (l Layout) ToY(price float64) float64 {
	return l.Plot.Y + (l.PriceMax-price)/(l.PriceMax-l.PriceMin)*l.Plot.H
}

// ToPrice is the exact inverse of ToY.
func (l Layout) ToPrice(y float64) float64 {
	return l.PriceMax - (y-l.Plot.Y)/l.Plot.H*(l.PriceMax-l.PriceMin)
}

// IndexAt maps an x pixel to a window slot, clamped to [0, W-1].
func (l Layout) IndexAt(x float64) int {
	idx := int((x - l.Plot.X) / l.slotW)
	if idx < 0 {
		idx = 0
	}
	if idx > len(l.window)-1 {
		idx = len(l.window) - 1
	}
	return idx
}

// toVolY maps a volume to a y pixel inside the volume pane.
func (l Layout) toVolY(v float64) float64 {
	if l.VolMax <= 0 {
		return l.Volume.Y + l.Volume.H
	}
	return l.Volume.Y + (1-v/l.VolMax)*l.Volume.H
}

func (r Rect) contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// BuildFrame renders one complete frame from a candle snapshot. Render
// order: grid, position line, candles, volume, crosshair, axis labels,
// last-close tag. Degenerate input yields an empty background frame.
func (r *Renderer) BuildFrame(candles []market.Candle, pos *PositionMarker) Frame {
	r.mu.Lock()
	width, height := r.width, r.height
	pointerIn, px, py := r.pointerIn, r.pointerX, r.pointerY
	l, ok := r.layoutLocked(candles)
	r.mu.Unlock()

	frame := Frame{Width: width, Height: height}
	if !ok {
		return frame
	}
	frame.Plot = l.Plot
	frame.VolumePane = l.Volume

	// horizontal price gridlines with their axis labels
	for i := 0; i <= r.cfg.GridLines; i++ {
		price := l.PriceMin + (l.PriceMax-l.PriceMin)*float64(i)/float64(r.cfg.GridLines)
		y := l.ToY(price)
		frame.Grid = append(frame.Grid, Line{X1: l.Plot.X, Y1: y, X2: l.Plot.X + l.Plot.W, Y2: y})
		frame.AxisLabels = append(frame.AxisLabels, Label{
			X:    l.Plot.X + l.Plot.W + 4,
			Y:    y,
			Text: fmt.Sprintf("%.2f", price),
		})
	}
	// vertical time gridlines every 10 slots
	for i := 0; i < l.WindowLen(); i += 10 {
		x := l.ToX(i)
		frame.Grid = append(frame.Grid, Line{X1: x, Y1: l.Plot.Y, X2: x, Y2: l.Plot.Y + l.Plot.H})
	}

	if pos != nil && pos.Price >= l.PriceMin && pos.Price <= l.PriceMax {
		y := l.ToY(pos.Price)
		frame.Position = &PositionLine{
			Line:  Line{X1: l.Plot.X, Y1: y, X2: l.Plot.X + l.Plot.W, Y2: y, Dashed: true},
			Label: Label{X: l.Plot.X + 4, Y: y, Text: fmt.Sprintf("%s %.2f", pos.Side, pos.Price)},
			Side:  pos.Side,
		}
	}

	bodyW := l.slotW * 0.6
	for i, c := range l.window {
		x := l.ToX(i)
		top, bottom := c.Body()
		yTop, yBottom := l.ToY(top), l.ToY(bottom)
		bodyH := yBottom - yTop
		if bodyH < 1 {
			bodyH = 1 // doji bars still get a visible body
		}
		frame.Candles = append(frame.Candles, CandleShape{
			Wick: Line{X1: x, Y1: l.ToY(c.High), X2: x, Y2: l.ToY(c.Low)},
			Body: Rect{X: x - bodyW/2, Y: yTop, W: bodyW, H: bodyH},
			Up:   c.Bullish(),
		})
		vy := l.toVolY(c.Volume)
		frame.Volume = append(frame.Volume, VolumeBar{
			Bar: Rect{X: x - bodyW/2, Y: vy, W: bodyW, H: l.Volume.Y + l.Volume.H - vy},
			Up:  c.Bullish(),
		})
	}

	if pointerIn && l.Plot.contains(px, py) {
		price := l.ToPrice(py)
		frame.Crosshair = &Crosshair{
			Horizontal: Line{X1: l.Plot.X, Y1: py, X2: l.Plot.X + l.Plot.W, Y2: py, Dashed: true},
			Vertical:   Line{X1: px, Y1: l.Plot.Y, X2: px, Y2: l.Plot.Y + l.Plot.H, Dashed: true},
			PriceLabel: Label{X: l.Plot.X + l.Plot.W + 4, Y: py, Text: fmt.Sprintf("%.2f", price)},
			Index:      l.IndexAt(px),
			Price:      price,
		}
	}

	last := l.window[l.WindowLen()-1]
	frame.LastClose = &PriceTag{
		Y:    l.ToY(last.Close),
		Text: fmt.Sprintf("%.2f", last.Close),
		Up:   last.Bullish(),
	}
	return frame
}
