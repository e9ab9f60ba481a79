// Package bias flags behavioral trading anti-patterns on closed trades.
// Detection is a pure function of the new trade and the history recorded
// before it; rules that need more history than exists simply stay silent.
package bias

import (
	"fmt"

	"github.com/quantclass/chartsim/internal/trading"
)

type FlagType string

const (
	Overconfidence FlagType = "OVERCONFIDENCE"
	EarlyExit      FlagType = "EARLY_EXIT"
	RevengeTrading FlagType = "REVENGE_TRADING"
	Herding        FlagType = "HERDING"
	FOMO           FlagType = "FOMO"
)

// Flag is one triggered rule with the numbers that triggered it.
type Flag struct {
	Type     FlagType `json:"type"`
	Evidence string   `json:"evidence"`
}

// Thresholds are the rule trigger points.
type Thresholds struct {
	// OverconfidenceMin: stated confidence strictly above this flags.
	OverconfidenceMin float64
	// EarlyExitBars: holding strictly fewer candles than this flags.
	EarlyExitBars int
	// RevengeLosses: this many consecutive most-recent losses flag.
	RevengeLosses int
	// HerdingRun: this many consecutive same-direction trades flag.
	HerdingRun int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		OverconfidenceMin: 85,
		EarlyExitBars:     3,
		RevengeLosses:     2,
		HerdingRun:        3,
	}
}

// Detect evaluates one closed trade against the history recorded before
// it. The trade under evaluation must not already be in history — the
// caller snapshots history first, then closes. A trade can carry any
// combination of flags.
func Detect(trade trading.Trade, history []trading.Trade, th Thresholds) []Flag {
	var flags []Flag

	if trade.Confidence > th.OverconfidenceMin {
		flags = append(flags, Flag{
			Type:     Overconfidence,
			Evidence: fmt.Sprintf("stated confidence %.0f%% exceeds %.0f%%", trade.Confidence, th.OverconfidenceMin),
		})
	}

	if trade.CandlesHeld < th.EarlyExitBars {
		flags = append(flags, Flag{
			Type:     EarlyExit,
			Evidence: fmt.Sprintf("held %d candles, under the %d-candle minimum", trade.CandlesHeld, th.EarlyExitBars),
		})
	}

	if n := th.RevengeLosses; n > 0 && len(history) >= n {
		allLosses := true
		for _, prev := range history[len(history)-n:] {
			if prev.RealizedPnL >= 0 {
				allLosses = false
				break
			}
		}
		if allLosses {
			flags = append(flags, Flag{
				Type:     RevengeTrading,
				Evidence: fmt.Sprintf("opened after %d consecutive losses", n),
			})
		}
	}

	if n := th.HerdingRun; n > 0 && len(history) >= n {
		sameDirection := true
		for _, prev := range history[len(history)-n:] {
			if prev.Direction != trade.Direction {
				sameDirection = false
				break
			}
		}
		if sameDirection {
			flags = append(flags, Flag{
				Type:     Herding,
				Evidence: fmt.Sprintf("last %d trades were all %s", n, trade.Direction),
			})
		}
	}

	if len(history) > 0 {
		last := history[len(history)-1]
		if last.RealizedPnL > 0 && trade.Quantity > last.Quantity {
			flags = append(flags, Flag{
				Type: FOMO,
				Evidence: fmt.Sprintf("sized up from %.2f to %.2f right after a %.2f win",
					last.Quantity, trade.Quantity, last.RealizedPnL),
			})
		}
	}

	return flags
}

// Types returns just the flag types, for compact logging and storage.
func Types(flags []Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f.Type)
	}
	return out
}
