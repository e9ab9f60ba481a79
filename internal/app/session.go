// Package app wires the simulator core into one interactive session:
// the generator ticks on a timer, every state change re-renders a frame,
// and trade lifecycle events fan out to the journal and the publisher.
package app

import (
	"context"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/quantclass/chartsim/internal/bias"
	"github.com/quantclass/chartsim/internal/chart"
	"github.com/quantclass/chartsim/internal/config"
	"github.com/quantclass/chartsim/internal/indicator"
	"github.com/quantclass/chartsim/internal/journal"
	"github.com/quantclass/chartsim/internal/market"
	"github.com/quantclass/chartsim/internal/trading"
)

// Event is one message pushed to the dashboard.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Publisher delivers events to connected dashboard clients. Publish must
// not block; slow consumers are the publisher's problem.
type Publisher interface {
	Publish(Event)
}

// Toast is a short dashboard notification.
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// BiasReport pairs a closed trade with its detected flags.
type BiasReport struct {
	Trade trading.Trade `json:"trade"`
	Flags []bias.Flag   `json:"flags"`
}

// Status is the session summary served by the API.
type Status struct {
	SessionID    string           `json:"session_id"`
	Running      bool             `json:"running"`
	UptimeS      float64          `json:"uptime_s"`
	Candles      int              `json:"candles"`
	TotalBars    int              `json:"total_bars"`
	TickInterval string           `json:"tick_interval"`
	Account      trading.Snapshot `json:"account"`
}

// Session owns one simulator run: the candle generator, the renderer,
// the account, and the bias/journal plumbing around trade closes.
type Session struct {
	id         string
	cfg        config.Config
	gen        *market.Generator
	renderer   *chart.Renderer
	account    *trading.Manager
	indicators []indicator.Indicator
	thresholds bias.Thresholds
	journal    journal.Recorder
	pub        Publisher

	startedAt time.Time
	running   atomic.Bool
}

// New builds a session from configuration. A nil recorder degrades to
// the noop journal; a nil publisher drops events.
func New(cfg config.Config, rec journal.Recorder, pub Publisher) *Session {
	if rec == nil {
		rec = journal.NewNoopRecorder()
	}
	s := &Session{
		id:         uuid.NewString(),
		cfg:        cfg,
		renderer:   chart.NewRenderer(chart.Config(cfg.Chart)),
		indicators: indicator.Standard(),
		thresholds: bias.Thresholds(cfg.Bias),
		journal:    rec,
		pub:        pub,
		startedAt:  time.Now(),
	}
	s.gen = market.NewGenerator(market.Config{
		SeedCandles: cfg.Market.SeedCandles,
		BasePrice:   cfg.Market.BasePrice,
		Volatility:  cfg.Market.Volatility,
		Drift:       cfg.Market.Drift,
		FloorRatio:  cfg.Market.FloorRatio,
		WickFactor:  cfg.Market.WickFactor,
		VolumeMin:   cfg.Market.VolumeMin,
		VolumeMax:   cfg.Market.VolumeMax,
		MutateProb:  cfg.Market.MutateProb,
		MaxCandles:  cfg.Market.MaxCandles,
		CandleSpan:  cfg.Market.CandleSpan,
	}, seedSource(cfg.Market.RNGSeed))
	s.account = trading.NewManager(trading.Config{
		StartingBalance: cfg.Trading.StartingBalance,
		HistoryCap:      cfg.Trading.HistoryCap,
	}, sessionListener{s})
	s.account.MarkPrice(s.gen.LastPrice(), s.gen.TotalBars())
	return s
}

// seedSource returns nil for seed 0 so the generator self-seeds from the
// clock; any other value makes the run reproducible.
func seedSource(seed int64) rand.Source {
	if seed == 0 {
		return nil
	}
	return rand.NewSource(seed)
}

// ID returns the session identifier stamped on journal rows.
func (s *Session) ID() string { return s.id }

// Run drives the tick loop until the context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Market.TickInterval)
	defer ticker.Stop()

	s.running.Store(true)
	defer s.running.Store(false)
	slog.Info("session started", "session", s.id, "tick", s.cfg.Market.TickInterval, "candles", s.gen.Len())

	for {
		select {
		case <-ctx.Done():
			slog.Info("session stopped", "session", s.id)
			return ctx.Err()
		case <-ticker.C:
			s.step()
		}
	}
}

// step is one timer tick: advance the series, mark the position to the
// new price, and push a fresh frame.
func (s *Session) step() {
	s.gen.Tick()
	candles := s.gen.Snapshot()
	if len(candles) == 0 {
		return
	}
	s.account.MarkPrice(candles[len(candles)-1].Close, s.gen.TotalBars())

	snap := s.account.Snapshot()
	if snap.Position != nil {
		s.publish(Event{Type: "unrealized", Data: map[string]float64{
			"pnl":   snap.UnrealizedPnL,
			"price": snap.MarketPrice,
		}})
	}
	s.publishFrame(candles)
}

// OpenPosition opens at the current market price. Direction accepts the
// canonical LONG/SHORT plus buy/sell aliases.
func (s *Session) OpenPosition(direction string, quantity, confidence float64) (trading.Position, error) {
	dir, err := trading.ParseDirection(direction)
	if err != nil {
		return trading.Position{}, err
	}
	return s.account.Open(dir, quantity, confidence)
}

// ClosePosition settles the open position, runs bias detection against
// the history as it stood before this trade, journals the result, and
// publishes the report.
func (s *Session) ClosePosition() (trading.Trade, []bias.Flag, error) {
	prior := s.account.History()
	trade, err := s.account.Close()
	if err != nil {
		return trading.Trade{}, nil, err
	}

	flags := bias.Detect(trade, prior, s.thresholds)
	if err := s.journal.RecordTrade(journal.Entry{SessionID: s.id, Trade: trade, Flags: flags}); err != nil {
		slog.Error("journal write failed", "trade", trade.ID, "err", err)
	}
	if len(flags) > 0 {
		s.publish(Event{Type: "bias", Data: BiasReport{Trade: trade, Flags: flags}})
	}
	return trade, flags, nil
}

// PointerMove relays pointer coordinates to the renderer and publishes
// the hover payload when the pointer resolves to a candle.
func (s *Session) PointerMove(x, y float64) {
	hover, ok := s.renderer.PointerMove(s.gen.Snapshot(), x, y)
	if ok {
		s.publish(Event{Type: "hover", Data: hover})
	}
}

// PointerLeave clears the crosshair.
func (s *Session) PointerLeave() {
	s.renderer.PointerLeave()
}

// Resize updates the viewport and pushes a frame immediately rather than
// waiting for the next tick, so the dashboard never shows a stretched
// canvas between resize and tick.
func (s *Session) Resize(width, height float64) {
	s.renderer.Resize(width, height)
	s.publishFrame(s.gen.Snapshot())
}

// Candles returns a copy of the current series.
func (s *Session) Candles() []market.Candle {
	return s.gen.Snapshot()
}

// Account returns the current account snapshot.
func (s *Session) Account() trading.Snapshot {
	return s.account.Snapshot()
}

// Trades returns the closed trade history, oldest first.
func (s *Session) Trades() []trading.Trade {
	return s.account.History()
}

// Indicators explains every standard indicator over the current series.
func (s *Session) Indicators() []indicator.Explanation {
	return indicator.Explain(s.indicators, s.gen.Snapshot())
}

// Status summarizes the session for the API.
func (s *Session) Status() Status {
	return Status{
		SessionID:    s.id,
		Running:      s.running.Load(),
		UptimeS:      time.Since(s.startedAt).Seconds(),
		Candles:      s.gen.Len(),
		TotalBars:    s.gen.TotalBars(),
		TickInterval: s.cfg.Market.TickInterval.String(),
		Account:      s.account.Snapshot(),
	}
}

func (s *Session) publishFrame(candles []market.Candle) {
	s.publish(Event{Type: "frame", Data: s.renderer.BuildFrame(candles, s.positionMarker())})
}

func (s *Session) positionMarker() *chart.PositionMarker {
	snap := s.account.Snapshot()
	if snap.Position == nil {
		return nil
	}
	return &chart.PositionMarker{Side: string(snap.Position.Direction), Price: snap.Position.EntryPrice}
}

func (s *Session) publish(ev Event) {
	if s.pub != nil {
		s.pub.Publish(ev)
	}
}

// sessionListener adapts the session to the trading.Listener seam.
type sessionListener struct{ s *Session }

func (l sessionListener) PositionOpened(pos trading.Position) {
	l.s.publish(Event{Type: "trade_opened", Data: pos})
	l.s.publish(Event{Type: "toast", Data: Toast{
		Level:   "info",
		Message: string(pos.Direction) + " opened",
	}})
}

func (l sessionListener) TradeClosed(trade trading.Trade) {
	level := "success"
	if trade.RealizedPnL < 0 {
		level = "warning"
	}
	l.s.publish(Event{Type: "trade_closed", Data: trade})
	l.s.publish(Event{Type: "toast", Data: Toast{
		Level:   level,
		Message: "trade closed",
	}})
}
