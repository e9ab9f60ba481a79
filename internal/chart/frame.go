package chart

// Frame is the drawable output of one render pass: a display list the
// dashboard canvas rasterizes in order. Geometry is in pixel coordinates
// with the origin at the top-left of the viewport.
type Frame struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Plot       Rect          `json:"plot"`
	VolumePane Rect          `json:"volume_pane"`
	Grid       []Line        `json:"grid,omitempty"`
	Position   *PositionLine `json:"position,omitempty"`
	Candles    []CandleShape `json:"candles,omitempty"`
	Volume     []VolumeBar   `json:"volume,omitempty"`
	Crosshair  *Crosshair    `json:"crosshair,omitempty"`
	AxisLabels []Label       `json:"axis_labels,omitempty"`
	LastClose  *PriceTag     `json:"last_close,omitempty"`
}

type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type Line struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Dashed bool    `json:"dashed,omitempty"`
}

type Label struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// CandleShape is one bar: the high-low wick plus the open-close body.
// Up selects the bull/bear color.
type CandleShape struct {
	Wick Line `json:"wick"`
	Body Rect `json:"body"`
	Up   bool `json:"up"`
}

type VolumeBar struct {
	Bar Rect `json:"bar"`
	Up  bool `json:"up"`
}

// PositionLine is the dashed entry-price reference for an open position.
type PositionLine struct {
	Line  Line   `json:"line"`
	Label Label  `json:"label"`
	Side  string `json:"side"`
}

// Crosshair tracks the pointer while it is inside the plot.
type Crosshair struct {
	Horizontal Line    `json:"horizontal"`
	Vertical   Line    `json:"vertical"`
	PriceLabel Label   `json:"price_label"`
	Index      int     `json:"index"`
	Price      float64 `json:"price"`
}

// PriceTag is the last-close marker on the price axis.
type PriceTag struct {
	Y    float64 `json:"y"`
	Text string  `json:"text"`
	Up   bool    `json:"up"`
}
