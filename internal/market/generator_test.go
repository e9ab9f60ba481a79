package market

import (
	"math/rand"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		SeedCandles: 120,
		BasePrice:   100,
		Volatility:  2.0,
		Drift:       0.48,
		FloorRatio:  0.1,
		WickFactor:  0.5,
		VolumeMin:   500,
		VolumeMax:   1500,
		MutateProb:  0.85,
		MaxCandles:  500,
		CandleSpan:  time.Minute,
	}
}

func checkInvariants(t *testing.T, candles []Candle) {
	t.Helper()
	for i, c := range candles {
		if c.Close <= 0 {
			t.Fatalf("candle %d: close %f is not positive", i, c.Close)
		}
		top, bottom := c.Body()
		if c.High < top {
			t.Fatalf("candle %d: high %f below body top %f", i, c.High, top)
		}
		if c.Low > bottom {
			t.Fatalf("candle %d: low %f above body bottom %f", i, c.Low, bottom)
		}
		if c.Volume < 0 {
			t.Fatalf("candle %d: negative volume %f", i, c.Volume)
		}
		if i > 0 && c.Time <= candles[i-1].Time {
			t.Fatalf("candle %d: time %d not strictly increasing after %d", i, c.Time, candles[i-1].Time)
		}
	}
}

func TestSeedProducesValidSeries(t *testing.T) {
	g := NewGenerator(testConfig(), rand.NewSource(1))
	candles := g.Snapshot()
	if len(candles) != 120 {
		t.Fatalf("expected 120 candles, got %d", len(candles))
	}
	checkInvariants(t, candles)

	for i := 1; i < len(candles); i++ {
		if candles[i].Open != candles[i-1].Close {
			t.Fatalf("candle %d opens at %f, previous close %f", i, candles[i].Open, candles[i-1].Close)
		}
	}
}

func TestSeedIsDeterministicUnderFixedSeed(t *testing.T) {
	a := NewGenerator(testConfig(), rand.NewSource(42)).Snapshot()
	b := NewGenerator(testConfig(), rand.NewSource(42)).Snapshot()
	if len(a) != len(b) {
		t.Fatalf("series lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca.Open != cb.Open || ca.High != cb.High || ca.Low != cb.Low || ca.Close != cb.Close || ca.Volume != cb.Volume {
			t.Fatalf("candle %d differs: %+v vs %+v", i, ca, cb)
		}
	}
}

func TestTickMutatesFormingBarInPlace(t *testing.T) {
	cfg := testConfig()
	cfg.MutateProb = 1.0 // always mutate, never append
	g := NewGenerator(cfg, rand.NewSource(7))

	before := g.Snapshot()
	for i := 0; i < 50; i++ {
		if appended := g.Tick(); appended {
			t.Fatalf("tick %d appended a bar with mutate_prob=1", i)
		}
	}
	after := g.Snapshot()

	if len(after) != len(before) {
		t.Fatalf("series grew from %d to %d", len(before), len(after))
	}
	// earlier bars are immutable once a forming bar exists
	for i := 0; i < len(before)-1; i++ {
		if before[i] != after[i] {
			t.Fatalf("sealed candle %d changed: %+v vs %+v", i, before[i], after[i])
		}
	}
	checkInvariants(t, after)
}

func TestTickSealsAndAppends(t *testing.T) {
	cfg := testConfig()
	cfg.MutateProb = 0 // always seal and append
	g := NewGenerator(cfg, rand.NewSource(7))

	n := g.Len()
	if appended := g.Tick(); !appended {
		t.Fatal("expected tick to append with mutate_prob=0")
	}
	candles := g.Snapshot()
	if len(candles) != n+1 {
		t.Fatalf("expected %d candles, got %d", n+1, len(candles))
	}
	last, prev := candles[len(candles)-1], candles[len(candles)-2]
	if last.Open != prev.Close {
		t.Fatalf("appended bar opens at %f, sealed close is %f", last.Open, prev.Close)
	}
	checkInvariants(t, candles)
}

func TestSeriesCapEvictsOldest(t *testing.T) {
	cfg := testConfig()
	cfg.SeedCandles = 10
	cfg.MaxCandles = 12
	cfg.MutateProb = 0
	g := NewGenerator(cfg, rand.NewSource(3))

	for i := 0; i < 20; i++ {
		g.Tick()
	}
	candles := g.Snapshot()
	if len(candles) != 12 {
		t.Fatalf("expected series capped at 12, got %d", len(candles))
	}
	checkInvariants(t, candles)
}

func TestCloseNeverBreachesFloorUnderHeavyDowntrend(t *testing.T) {
	cfg := testConfig()
	cfg.Drift = 1.0 // every step moves down hard
	cfg.Volatility = 50
	cfg.MutateProb = 0.5
	g := NewGenerator(cfg, rand.NewSource(9))

	for i := 0; i < 500; i++ {
		g.Tick()
	}
	floor := cfg.BasePrice * cfg.FloorRatio
	for i, c := range g.Snapshot() {
		if c.Close < floor {
			t.Fatalf("candle %d: close %f under floor %f", i, c.Close, floor)
		}
		if c.Low <= 0 {
			t.Fatalf("candle %d: low %f is not positive", i, c.Low)
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	g := NewGenerator(testConfig(), rand.NewSource(5))
	snap := g.Snapshot()
	snap[0].Close = -1
	if g.Snapshot()[0].Close == -1 {
		t.Fatal("mutating a snapshot leaked into the generator's series")
	}
}
