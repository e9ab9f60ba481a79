// Package indicator explains common technical indicators over the candle
// window. Each indicator kind is its own type behind the Indicator
// interface, replacing a dispatch-by-name scheme with one variant per
// kind and a fixed capability set.
package indicator

import (
	"math"

	"github.com/quantclass/chartsim/internal/market"
)

// Indicator is one explainable indicator kind. Compute derives the
// current value from the candle window; the second return is false when
// the window is too short. Classify, Interpret, and RiskNote are pure in
// the computed value.
type Indicator interface {
	Name() string
	Compute(candles []market.Candle) (float64, bool)
	Classify(value float64) Classification
	Interpret(value float64) string
	RiskNote(value float64) string
}

// Classification is the signal summary for a computed value.
type Classification struct {
	Signal     string `json:"signal"`      // e.g. OVERBOUGHT, NEUTRAL
	Bias       string `json:"bias"`        // BUY | SELL | HOLD | WAIT
	Confidence string `json:"confidence"`  // HIGH | MEDIUM | LOW
}

// Explanation is the full serialized output for one indicator.
type Explanation struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Classification
	Interpretation string `json:"interpretation"`
	RiskNote       string `json:"risk_note"`
}

// Standard returns the default indicator set.
func Standard() []Indicator {
	return []Indicator{
		RSI{Period: 14},
		EMA{Period: 12},
		SMA{Period: 20},
		Volume{Period: 20},
		Volatility{Period: 20},
	}
}

// Explain runs every indicator that has enough data over the window.
func Explain(indicators []Indicator, candles []market.Candle) []Explanation {
	var out []Explanation
	for _, ind := range indicators {
		value, ok := ind.Compute(candles)
		if !ok {
			continue
		}
		out = append(out, Explanation{
			Name:           ind.Name(),
			Value:          value,
			Classification: ind.Classify(value),
			Interpretation: ind.Interpret(value),
			RiskNote:       ind.RiskNote(value),
		})
	}
	return out
}

func closes(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// sma is the simple moving average of the trailing period values.
func sma(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// ema folds the standard exponential smoothing over the whole series.
func ema(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	k := 2.0 / (float64(period) + 1)
	avg, _ := sma(values[:period], period)
	for _, v := range values[period:] {
		avg = v*k + avg*(1-k)
	}
	return avg, true
}

// deviationPct is the percent distance of price from a reference level,
// the neutral-safe form used for moving-average classification.
func deviationPct(price, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return (price/ref - 1) * 100
}

// stddev of the percent close-to-close returns over the trailing period.
func returnStddev(values []float64, period int) (float64, bool) {
	if period <= 1 || len(values) < period+1 {
		return 0, false
	}
	window := values[len(values)-period-1:]
	returns := make([]float64, 0, period)
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			return 0, false
		}
		returns = append(returns, (window[i]/window[i-1]-1)*100)
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance), true
}
