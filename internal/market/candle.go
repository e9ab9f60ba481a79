package market

// Candle is one OHLCV price bar. Time is a unix timestamp, strictly
// increasing and unique across the series. While a bar is still forming
// its Close/High/Low move on every tick; once a successor bar exists the
// bar is immutable.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Bullish reports whether the bar closed at or above its open.
func (c Candle) Bullish() bool { return c.Close >= c.Open }

// Body returns the open/close extremes in (top, bottom) order.
func (c Candle) Body() (top, bottom float64) {
	if c.Open > c.Close {
		return c.Open, c.Close
	}
	return c.Close, c.Open
}
