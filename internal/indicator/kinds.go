package indicator

import (
	"fmt"

	"github.com/quantclass/chartsim/internal/market"
)

// RSI is the Wilder-smoothed relative strength index with the classic
// 70/30 overbought/oversold thresholds and 80/20 extremes.
type RSI struct {
	Period int
}

func (RSI) Name() string { return "RSI" }

func (r RSI) Compute(candles []market.Candle) (float64, bool) {
	values := closes(candles)
	if r.Period <= 0 || len(values) < r.Period+1 {
		return 0, false
	}
	var avgGain, avgLoss float64
	for i := 1; i <= r.Period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(r.Period)
	avgLoss /= float64(r.Period)

	for i := r.Period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(r.Period-1) + gain) / float64(r.Period)
		avgLoss = (avgLoss*float64(r.Period-1) + loss) / float64(r.Period)
	}
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

func (RSI) Classify(v float64) Classification {
	switch {
	case v >= 80:
		return Classification{Signal: "OVERBOUGHT", Bias: "SELL", Confidence: "HIGH"}
	case v >= 70:
		return Classification{Signal: "OVERBOUGHT", Bias: "SELL", Confidence: "MEDIUM"}
	case v <= 20:
		return Classification{Signal: "OVERSOLD", Bias: "BUY", Confidence: "HIGH"}
	case v <= 30:
		return Classification{Signal: "OVERSOLD", Bias: "BUY", Confidence: "MEDIUM"}
	case v >= 45 && v <= 55:
		return Classification{Signal: "NEUTRAL", Bias: "HOLD", Confidence: "LOW"}
	case v > 55:
		return Classification{Signal: "BULLISH", Bias: "BUY", Confidence: "MEDIUM"}
	default:
		return Classification{Signal: "BEARISH", Bias: "SELL", Confidence: "MEDIUM"}
	}
}

func (r RSI) Interpret(v float64) string {
	c := r.Classify(v)
	switch c.Signal {
	case "OVERBOUGHT":
		return fmt.Sprintf("RSI at %.1f: upward momentum is stretched and mean-reversion probability is elevated.", v)
	case "OVERSOLD":
		return fmt.Sprintf("RSI at %.1f: selling pressure is excessive and a technical bounce is statistically probable.", v)
	case "NEUTRAL":
		return fmt.Sprintf("RSI at %.1f sits in the neutral midrange; neither side holds a decisive advantage.", v)
	case "BULLISH":
		return fmt.Sprintf("RSI at %.1f shows buying pressure without an overbought warning.", v)
	default:
		return fmt.Sprintf("RSI at %.1f shows selling pressure without reaching an oversold extreme.", v)
	}
}

func (r RSI) RiskNote(v float64) string {
	switch {
	case v >= 70:
		return "In strong trends RSI can stay overbought for extended periods; use tight stops."
	case v <= 30:
		return "Oversold readings in downtrends can persist; confirm with volume before entering."
	default:
		return "Midrange RSI offers no directional edge on its own."
	}
}

// EMA classifies the percent deviation of the last close from the
// exponential moving average.
type EMA struct {
	Period int
}

func (EMA) Name() string { return "EMA" }

func (e EMA) Compute(candles []market.Candle) (float64, bool) {
	values := closes(candles)
	avg, ok := ema(values, e.Period)
	if !ok {
		return 0, false
	}
	return deviationPct(values[len(values)-1], avg), true
}

func (EMA) Classify(v float64) Classification {
	switch {
	case v > 3:
		return Classification{Signal: "EXTENDED", Bias: "HOLD", Confidence: "MEDIUM"}
	case v > 0.5:
		return Classification{Signal: "ABOVE", Bias: "BUY", Confidence: "MEDIUM"}
	case v < -3:
		return Classification{Signal: "CAPITULATION", Bias: "WAIT", Confidence: "MEDIUM"}
	case v < -0.5:
		return Classification{Signal: "BELOW", Bias: "SELL", Confidence: "MEDIUM"}
	default:
		return Classification{Signal: "AT_AVERAGE", Bias: "HOLD", Confidence: "LOW"}
	}
}

func (e EMA) Interpret(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("Price is %.1f%% above its %d-period EMA; short-term momentum favors buyers.", v, e.Period)
	}
	return fmt.Sprintf("Price is %.1f%% below its %d-period EMA; short-term momentum favors sellers.", -v, e.Period)
}

func (EMA) RiskNote(v float64) string {
	if v > 3 || v < -3 {
		return "Large distance from the EMA often snaps back; chasing here risks buying the top or selling the bottom."
	}
	return "EMA signals lag price; confirm direction with a momentum oscillator."
}

// SMA classifies the percent deviation of the last close from the simple
// moving average, the slower trend baseline.
type SMA struct {
	Period int
}

func (SMA) Name() string { return "SMA" }

func (s SMA) Compute(candles []market.Candle) (float64, bool) {
	values := closes(candles)
	avg, ok := sma(values, s.Period)
	if !ok {
		return 0, false
	}
	return deviationPct(values[len(values)-1], avg), true
}

func (SMA) Classify(v float64) Classification {
	switch {
	case v > 1:
		return Classification{Signal: "UPTREND", Bias: "BUY", Confidence: "MEDIUM"}
	case v < -1:
		return Classification{Signal: "DOWNTREND", Bias: "SELL", Confidence: "MEDIUM"}
	default:
		return Classification{Signal: "RANGING", Bias: "HOLD", Confidence: "LOW"}
	}
}

func (s SMA) Interpret(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("Price trades %.1f%% over the %d-period SMA, keeping the trend baseline constructive.", v, s.Period)
	}
	return fmt.Sprintf("Price trades %.1f%% under the %d-period SMA, keeping the trend baseline defensive.", -v, s.Period)
}

func (SMA) RiskNote(float64) string {
	return "Simple averages weight old and new bars equally; regime changes show up late."
}

// Volume classifies the last bar's volume as a ratio of the trailing
// average. A zero average degrades to the neutral ratio 1.
type Volume struct {
	Period int
}

func (Volume) Name() string { return "VOLUME" }

func (vl Volume) Compute(candles []market.Candle) (float64, bool) {
	if vl.Period <= 0 || len(candles) < vl.Period {
		return 0, false
	}
	sum := 0.0
	for _, c := range candles[len(candles)-vl.Period:] {
		sum += c.Volume
	}
	avg := sum / float64(vl.Period)
	if avg == 0 {
		return 1, true
	}
	return candles[len(candles)-1].Volume / avg, true
}

func (Volume) Classify(v float64) Classification {
	switch {
	case v >= 2:
		return Classification{Signal: "SURGE", Bias: "WAIT", Confidence: "HIGH"}
	case v >= 1.3:
		return Classification{Signal: "ELEVATED", Bias: "HOLD", Confidence: "MEDIUM"}
	case v <= 0.5:
		return Classification{Signal: "THIN", Bias: "WAIT", Confidence: "MEDIUM"}
	default:
		return Classification{Signal: "NORMAL", Bias: "HOLD", Confidence: "LOW"}
	}
}

func (Volume) Interpret(v float64) string {
	return fmt.Sprintf("Current bar volume is %.1fx the trailing average.", v)
}

func (Volume) RiskNote(v float64) string {
	if v >= 2 {
		return "Volume surges mark conviction but also exhaustion; wait for the bar to close before acting."
	}
	if v <= 0.5 {
		return "Thin volume exaggerates price moves; signals printed here are unreliable."
	}
	return "Volume confirms price; it does not predict it."
}

// Volatility is the standard deviation of percent close-to-close returns
// over the trailing period.
type Volatility struct {
	Period int
}

func (Volatility) Name() string { return "VOLATILITY" }

func (vt Volatility) Compute(candles []market.Candle) (float64, bool) {
	return returnStddev(closes(candles), vt.Period)
}

func (Volatility) Classify(v float64) Classification {
	switch {
	case v >= 3:
		return Classification{Signal: "EXTREME", Bias: "WAIT", Confidence: "HIGH"}
	case v >= 1.5:
		return Classification{Signal: "HIGH", Bias: "HOLD", Confidence: "MEDIUM"}
	case v < 0.5:
		return Classification{Signal: "COMPRESSED", Bias: "HOLD", Confidence: "MEDIUM"}
	default:
		return Classification{Signal: "NORMAL", Bias: "HOLD", Confidence: "LOW"}
	}
}

func (vt Volatility) Interpret(v float64) string {
	return fmt.Sprintf("Per-bar return deviation is %.2f%% over the last %d bars.", v, vt.Period)
}

func (Volatility) RiskNote(v float64) string {
	if v >= 3 {
		return "Extreme volatility widens realistic stop distances; position sizes should shrink accordingly."
	}
	if v < 0.5 {
		return "Compressed volatility tends to resolve in a sharp expansion; avoid assuming the calm persists."
	}
	return "Volatility is a direct cost to compounded returns, not just uncertainty."
}
