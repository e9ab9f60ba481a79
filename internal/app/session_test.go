package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quantclass/chartsim/internal/bias"
	"github.com/quantclass/chartsim/internal/config"
	"github.com/quantclass/chartsim/internal/journal"
	"github.com/quantclass/chartsim/internal/trading"
)

type capturePub struct {
	mu     sync.Mutex
	events []Event
}

func (p *capturePub) Publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePub) byType(t string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, ev := range p.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type captureJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *captureJournal) RecordTrade(e journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

func (j *captureJournal) Close() error { return nil }

func testSessionConfig() config.Config {
	cfg := config.Default()
	cfg.Market.RNGSeed = 7
	cfg.Market.TickInterval = 5 * time.Millisecond
	return cfg
}

func TestOpenAndCloseLifecycle(t *testing.T) {
	pub := &capturePub{}
	s := New(testSessionConfig(), nil, pub)

	pos, err := s.OpenPosition("LONG", 10, 60)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if pos.Direction != trading.Long || pos.EntryPrice <= 0 {
		t.Fatalf("unexpected position: %+v", pos)
	}
	if got := pub.byType("trade_opened"); len(got) != 1 {
		t.Fatalf("trade_opened events = %d, want 1", len(got))
	}

	trade, _, err := s.ClosePosition()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if trade.EntryPrice != pos.EntryPrice {
		t.Fatalf("trade entry %f != position entry %f", trade.EntryPrice, pos.EntryPrice)
	}
	if got := pub.byType("trade_closed"); len(got) != 1 {
		t.Fatalf("trade_closed events = %d, want 1", len(got))
	}
	if snap := s.Account(); snap.State != "FLAT" {
		t.Fatalf("state after close = %s, want FLAT", snap.State)
	}
}

func TestCloseWhileFlatSurfacesInvalidState(t *testing.T) {
	s := New(testSessionConfig(), nil, nil)
	if _, _, err := s.ClosePosition(); !errors.Is(err, trading.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
}

func TestOpenRejectsUnknownDirection(t *testing.T) {
	s := New(testSessionConfig(), nil, nil)
	if _, err := s.OpenPosition("sideways", 1, 50); err == nil {
		t.Fatal("expected direction parse error")
	}
}

func TestCloseJournalsTradeWithBiasFlags(t *testing.T) {
	rec := &captureJournal{}
	pub := &capturePub{}
	s := New(testSessionConfig(), rec, pub)

	// confidence over the threshold and an instant exit: two flags are
	// guaranteed regardless of where the walk goes.
	if _, err := s.OpenPosition("LONG", 10, 95); err != nil {
		t.Fatalf("open: %v", err)
	}
	trade, flags, err := s.ClosePosition()
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	want := map[bias.FlagType]bool{bias.Overconfidence: false, bias.EarlyExit: false}
	for _, f := range flags {
		if _, ok := want[f.Type]; ok {
			want[f.Type] = true
		}
	}
	for ft, seen := range want {
		if !seen {
			t.Fatalf("flag %s not raised; got %+v", ft, flags)
		}
	}

	if len(rec.entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(rec.entries))
	}
	entry := rec.entries[0]
	if entry.Trade.ID != trade.ID || entry.SessionID != s.ID() {
		t.Fatalf("journal entry mismatch: %+v", entry)
	}
	if len(entry.Flags) != len(flags) {
		t.Fatalf("journal flags = %d, want %d", len(entry.Flags), len(flags))
	}
	if got := pub.byType("bias"); len(got) != 1 {
		t.Fatalf("bias events = %d, want 1", len(got))
	}
}

func TestBiasEvaluatesAgainstPriorHistoryOnly(t *testing.T) {
	cfg := testSessionConfig()
	cfg.Bias.HerdingRun = 2
	s := New(cfg, nil, nil)

	var lastFlags []bias.Flag
	for i := 0; i < 3; i++ {
		if _, err := s.OpenPosition("LONG", 1, 50); err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		_, flags, err := s.ClosePosition()
		if err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
		lastFlags = flags
	}

	// trade 3 sees two prior LONG trades and must carry the herding flag;
	// the trade under evaluation itself is not part of that run.
	found := false
	for _, f := range lastFlags {
		if f.Type == bias.Herding {
			found = true
		}
	}
	if !found {
		t.Fatalf("herding not flagged on third same-direction trade: %+v", lastFlags)
	}
}

func TestResizePublishesFrameImmediately(t *testing.T) {
	pub := &capturePub{}
	s := New(testSessionConfig(), nil, pub)

	s.Resize(800, 600)
	frames := pub.byType("frame")
	if len(frames) != 1 {
		t.Fatalf("frame events after resize = %d, want 1", len(frames))
	}
}

func TestRunTicksAndStopsOnCancel(t *testing.T) {
	pub := &capturePub{}
	s := New(testSessionConfig(), nil, pub)
	s.Resize(800, 600)
	pub.mu.Lock()
	pub.events = nil
	pub.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(pub.byType("frame")) == 0 {
		select {
		case <-deadline:
			t.Fatal("no frame published within deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestStatusReflectsAccount(t *testing.T) {
	s := New(testSessionConfig(), nil, nil)
	st := s.Status()
	if st.SessionID != s.ID() {
		t.Fatalf("status session id %s != %s", st.SessionID, s.ID())
	}
	if st.Candles != 120 || st.TotalBars != 120 {
		t.Fatalf("status candles=%d total=%d, want 120/120", st.Candles, st.TotalBars)
	}
	if st.Account.Balance != 10000 || st.Account.State != "FLAT" {
		t.Fatalf("unexpected account status: %+v", st.Account)
	}
	if st.Running {
		t.Fatal("running should be false before Run")
	}
}
