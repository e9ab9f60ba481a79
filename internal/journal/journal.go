// Package journal persists closed trades for external consumers (the
// gamification subsystem reads the file after the session). The
// simulator core itself never reads it back.
package journal

import (
	"github.com/quantclass/chartsim/internal/bias"
	"github.com/quantclass/chartsim/internal/trading"
)

// Entry is one closed trade with its detected bias flags.
type Entry struct {
	SessionID string
	Trade     trading.Trade
	Flags     []bias.Flag
}

// Recorder persists closed trades.
type Recorder interface {
	RecordTrade(Entry) error
	Close() error
}

// NoopRecorder is used when no journal path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (*NoopRecorder) RecordTrade(Entry) error { return nil }
func (*NoopRecorder) Close() error            { return nil }
