package trading

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// ErrInvalidState marks a position lifecycle contract violation: open()
// while a position exists, or close()/unrealized P&L with none. Callers
// check it with errors.Is.
var ErrInvalidState = errors.New("invalid position state")

// ParseDirection normalizes buy/sell style input to Long/Short.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Long, Short:
		return Direction(s), nil
	}
	switch s {
	case "BUY", "buy", "long":
		return Long, nil
	case "SELL", "sell", "short":
		return Short, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Position is the single open directional exposure.
type Position struct {
	Direction     Direction `json:"direction"`
	EntryPrice    float64   `json:"entry_price"`
	Quantity      float64   `json:"quantity"`
	Confidence    float64   `json:"confidence"`
	OpenedAtIndex int       `json:"opened_at_index"`
	OpenedAt      time.Time `json:"opened_at"`
}

// Trade is a closed position. Immutable once created.
type Trade struct {
	ID            string    `json:"id"`
	Direction     Direction `json:"direction"`
	EntryPrice    float64   `json:"entry_price"`
	ExitPrice     float64   `json:"exit_price"`
	Quantity      float64   `json:"quantity"`
	Confidence    float64   `json:"confidence"`
	RealizedPnL   float64   `json:"realized_pnl"`
	CandlesHeld   int       `json:"candles_held"`
	OpenedAt      time.Time `json:"opened_at"`
	ClosedAt      time.Time `json:"closed_at"`
}

// Listener receives trade lifecycle events. The manager never touches
// globals; whoever constructs it decides where events go.
type Listener interface {
	PositionOpened(Position)
	TradeClosed(Trade)
}

type Config struct {
	StartingBalance float64
	HistoryCap      int
}

// Snapshot is a point-in-time copy of the account for read-only consumers.
type Snapshot struct {
	State         string    `json:"state"`
	Position      *Position `json:"position,omitempty"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	Balance       float64   `json:"balance"`
	MarketPrice   float64   `json:"market_price"`
	TradeCount    int       `json:"trade_count"`
}

// Manager owns the FLAT -> OPEN -> FLAT position lifecycle, realized and
// unrealized P&L, and the bounded trade history. Mutual exclusion for the
// at-most-one-position invariant is the state machine's preconditions;
// the mutex only protects against torn reads from the API goroutine.
type Manager struct {
	mu          sync.Mutex
	cfg         Config
	position    *Position
	balance     float64
	history     []Trade
	marketPrice float64
	candleCount int
	listener    Listener
}

func NewManager(cfg Config, listener Listener) *Manager {
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = 50
	}
	return &Manager{
		cfg:      cfg,
		balance:  cfg.StartingBalance,
		listener: listener,
	}
}

// MarkPrice records the latest market price and candle count. Unrealized
// P&L is derived from these on demand, never cached.
func (m *Manager) MarkPrice(price float64, candleCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marketPrice = price
	m.candleCount = candleCount
}

// Open creates the position. Valid only while flat; a second open fails
// with ErrInvalidState and leaves the existing position untouched.
func (m *Manager) Open(dir Direction, quantity, confidence float64) (Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.position != nil {
		return Position{}, fmt.Errorf("open %s: position already open: %w", dir, ErrInvalidState)
	}
	if dir != Long && dir != Short {
		return Position{}, fmt.Errorf("open: unknown direction %q", dir)
	}
	if quantity <= 0 {
		return Position{}, fmt.Errorf("open: quantity must be positive, got %f", quantity)
	}
	if confidence < 0 || confidence > 100 {
		return Position{}, fmt.Errorf("open: confidence must be within [0,100], got %f", confidence)
	}
	if m.marketPrice <= 0 {
		return Position{}, fmt.Errorf("open: no market price yet")
	}

	pos := Position{
		Direction:     dir,
		EntryPrice:    m.marketPrice,
		Quantity:      quantity,
		Confidence:    confidence,
		OpenedAtIndex: m.candleCount,
		OpenedAt:      time.Now(),
	}
	m.position = &pos
	slog.Info("position opened", "direction", dir, "entry", pos.EntryPrice, "quantity", quantity, "confidence", confidence)
	if m.listener != nil {
		m.listener.PositionOpened(pos)
	}
	return pos, nil
}

// UnrealizedPnL marks the open position to the latest price. Valid only
// while open.
func (m *Manager) UnrealizedPnL() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.position == nil {
		return 0, fmt.Errorf("unrealized pnl: no open position: %w", ErrInvalidState)
	}
	return pnl(m.position.Direction, m.position.EntryPrice, m.marketPrice, m.position.Quantity), nil
}

// Close settles the position at the current market price, credits the
// balance, appends the trade to the bounded history (oldest evicted
// first), and returns to flat. Valid only while open.
func (m *Manager) Close() (Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.position == nil {
		return Trade{}, fmt.Errorf("close: no open position: %w", ErrInvalidState)
	}
	pos := *m.position
	realized := pnl(pos.Direction, pos.EntryPrice, m.marketPrice, pos.Quantity)

	trade := Trade{
		ID:          uuid.NewString(),
		Direction:   pos.Direction,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   m.marketPrice,
		Quantity:    pos.Quantity,
		Confidence:  pos.Confidence,
		RealizedPnL: realized,
		CandlesHeld: m.candleCount - pos.OpenedAtIndex,
		OpenedAt:    pos.OpenedAt,
		ClosedAt:    time.Now(),
	}
	m.position = nil
	m.balance += realized
	m.history = append(m.history, trade)
	if len(m.history) > m.cfg.HistoryCap {
		m.history = m.history[len(m.history)-m.cfg.HistoryCap:]
	}

	slog.Info("trade closed", "id", trade.ID, "direction", trade.Direction,
		"entry", trade.EntryPrice, "exit", trade.ExitPrice, "pnl", realized, "held", trade.CandlesHeld)
	if m.listener != nil {
		m.listener.TradeClosed(trade)
	}
	return trade, nil
}

// History returns a copy of the closed trades, oldest first.
func (m *Manager) History() []Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Trade, len(m.history))
	copy(out, m.history)
	return out
}

// Snapshot returns the current account view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		State:       "FLAT",
		Balance:     m.balance,
		MarketPrice: m.marketPrice,
		TradeCount:  len(m.history),
	}
	if m.position != nil {
		pos := *m.position
		snap.State = "OPEN"
		snap.Position = &pos
		snap.UnrealizedPnL = pnl(pos.Direction, pos.EntryPrice, m.marketPrice, pos.Quantity)
	}
	return snap
}

// pnl is linear in quantity and price delta; no slippage, fees, or
// partial fills are modeled.
func pnl(dir Direction, entry, exit, quantity float64) float64 {
	if dir == Long {
		return (exit - entry) * quantity
	}
	return (entry - exit) * quantity
}
