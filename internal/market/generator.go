package market

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Config controls the synthetic random-walk series.
type Config struct {
	SeedCandles int
	BasePrice   float64
	Volatility  float64
	// Drift shifts the walk: rand() below Drift steps down, above steps up.
	// 0.5 is a symmetric walk, lower values drift upward.
	Drift      float64
	FloorRatio float64
	WickFactor float64
	VolumeMin  float64
	VolumeMax  float64
	// MutateProb is the per-tick probability of mutating the forming bar
	// in place; otherwise the bar is sealed and a new one is appended.
	MutateProb float64
	MaxCandles int
	CandleSpan time.Duration
}

// Generator owns the candle series. It is the only writer; consumers read
// value copies via Snapshot. A tick either mutates the last (forming) bar
// or seals it and appends a fresh bar opening at the previous close — the
// two cases are distinguished by Tick's return value so downstream code
// can tell bar mutation from bar creation.
type Generator struct {
	mu      sync.Mutex
	cfg     Config
	rng     *rand.Rand
	candles []Candle
	// total counts every bar ever created, including ones evicted by
	// the series cap; position accounting keys off it.
	total int
}

// NewGenerator builds a generator and seeds the initial series. A nil
// source gets a time-based seed (live demo mode); tests pass
// rand.NewSource(k) for reproducible output.
func NewGenerator(cfg Config, src rand.Source) *Generator {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if cfg.CandleSpan <= 0 {
		cfg.CandleSpan = time.Minute
	}
	g := &Generator{
		cfg: cfg,
		rng: rand.New(src),
	}
	g.seed()
	return g
}

func (g *Generator) floor() float64 {
	return g.cfg.BasePrice * g.cfg.FloorRatio
}

// seed produces the initial SeedCandles bars via additive random walk.
func (g *Generator) seed() {
	start := time.Now().Add(-time.Duration(g.cfg.SeedCandles) * g.cfg.CandleSpan).Unix()
	span := int64(g.cfg.CandleSpan / time.Second)

	prevClose := g.cfg.BasePrice
	g.candles = make([]Candle, 0, g.cfg.SeedCandles)
	for i := 0; i < g.cfg.SeedCandles; i++ {
		c := g.nextCandle(prevClose, start+int64(i)*span)
		g.candles = append(g.candles, c)
		prevClose = c.Close
	}
	g.total = len(g.candles)
	slog.Debug("seeded candle series", "count", len(g.candles), "base", g.cfg.BasePrice)
}

// nextCandle rolls one walk step: open at the previous close, close
// clamped to the price floor, wicks padded beyond the body.
func (g *Generator) nextCandle(open float64, ts int64) Candle {
	delta := (g.rng.Float64() - g.cfg.Drift) * g.cfg.Volatility * 2
	close := math.Max(open+delta, g.floor())
	high := math.Max(open, close) + g.rng.Float64()*g.cfg.Volatility*g.cfg.WickFactor
	low := math.Min(open, close) - g.rng.Float64()*g.cfg.Volatility*g.cfg.WickFactor
	if min := g.floor() * 0.5; low < min {
		low = min
	}
	// low must stay under the body even after the floor clamp
	if body := math.Min(open, close); low > body {
		low = body
	}
	return Candle{
		Time:   ts,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: g.cfg.VolumeMin + g.rng.Float64()*(g.cfg.VolumeMax-g.cfg.VolumeMin),
	}
}

// Tick advances the series by one update. It returns true when a new bar
// was appended and false when the forming bar was mutated in place.
func (g *Generator) Tick() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.candles) == 0 {
		c := g.nextCandle(g.cfg.BasePrice, time.Now().Unix())
		g.candles = append(g.candles, c)
		g.total++
		return true
	}

	if g.rng.Float64() < g.cfg.MutateProb {
		last := &g.candles[len(g.candles)-1]
		delta := (g.rng.Float64() - g.cfg.Drift) * g.cfg.Volatility
		last.Close = math.Max(last.Close+delta, g.floor())
		if last.Close > last.High {
			last.High = last.Close
		}
		if last.Close < last.Low {
			last.Low = last.Close
		}
		return false
	}

	// seal the forming bar and open a new one at its close
	prev := g.candles[len(g.candles)-1]
	span := int64(g.cfg.CandleSpan / time.Second)
	c := g.nextCandle(prev.Close, prev.Time+span)
	g.candles = append(g.candles, c)
	g.total++
	if g.cfg.MaxCandles > 0 && len(g.candles) > g.cfg.MaxCandles {
		g.candles = g.candles[len(g.candles)-g.cfg.MaxCandles:]
	}
	return true
}

// Snapshot returns a complete, internally consistent copy of the series.
func (g *Generator) Snapshot() []Candle {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Candle, len(g.candles))
	copy(out, g.candles)
	return out
}

// LastPrice returns the forming bar's close, or 0 on an empty series.
func (g *Generator) LastPrice() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.candles) == 0 {
		return 0
	}
	return g.candles[len(g.candles)-1].Close
}

// Len returns the current series length.
func (g *Generator) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.candles)
}

// TotalBars returns the count of bars ever created. Unlike Len it keeps
// growing after the series cap starts evicting.
func (g *Generator) TotalBars() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.total
}
