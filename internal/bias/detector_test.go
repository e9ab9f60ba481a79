package bias

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quantclass/chartsim/internal/trading"
)

func hasFlag(flags []Flag, ft FlagType) bool {
	for _, f := range flags {
		if f.Type == ft {
			return true
		}
	}
	return false
}

func trade(dir trading.Direction, pnl, qty, confidence float64, held int) trading.Trade {
	return trading.Trade{
		Direction:   dir,
		RealizedPnL: pnl,
		Quantity:    qty,
		Confidence:  confidence,
		CandlesHeld: held,
	}
}

func TestOverconfidenceThreshold(t *testing.T) {
	th := DefaultThresholds()

	flags := Detect(trade(trading.Long, 10, 1, 90, 5), nil, th)
	assert.True(t, hasFlag(flags, Overconfidence), "confidence 90 flags")

	flags = Detect(trade(trading.Long, 10, 1, 50, 5), nil, th)
	assert.False(t, hasFlag(flags, Overconfidence), "confidence 50 does not flag")

	flags = Detect(trade(trading.Long, 10, 1, 85, 5), nil, th)
	assert.False(t, hasFlag(flags, Overconfidence), "threshold is strict")
}

func TestEarlyExitThreshold(t *testing.T) {
	th := DefaultThresholds()

	flags := Detect(trade(trading.Long, 10, 1, 50, 2), nil, th)
	assert.True(t, hasFlag(flags, EarlyExit))

	flags = Detect(trade(trading.Long, 10, 1, 50, 3), nil, th)
	assert.False(t, hasFlag(flags, EarlyExit))
}

func TestRevengeTradingNeedsTwoLosses(t *testing.T) {
	th := DefaultThresholds()
	newTrade := trade(trading.Long, 5, 1, 50, 5)

	history := []trading.Trade{
		trade(trading.Long, -20, 1, 50, 5),
		trade(trading.Short, -10, 1, 50, 5),
	}
	assert.True(t, hasFlag(Detect(newTrade, history, th), RevengeTrading))

	history = []trading.Trade{
		trade(trading.Long, 20, 1, 50, 5),
		trade(trading.Short, -10, 1, 50, 5),
	}
	assert.False(t, hasFlag(Detect(newTrade, history, th), RevengeTrading),
		"a single loss is no revenge signal")

	history = []trading.Trade{trade(trading.Long, -10, 1, 50, 5)}
	assert.False(t, hasFlag(Detect(newTrade, history, th), RevengeTrading),
		"insufficient history means no signal, not an error")
}

func TestHerdingNeedsThreeSameDirection(t *testing.T) {
	th := DefaultThresholds()
	newTrade := trade(trading.Long, 5, 1, 50, 5)

	history := []trading.Trade{
		trade(trading.Long, 1, 1, 50, 5),
		trade(trading.Long, 1, 1, 50, 5),
		trade(trading.Long, 1, 1, 50, 5),
	}
	assert.True(t, hasFlag(Detect(newTrade, history, th), Herding))

	history[1] = trade(trading.Short, 1, 1, 50, 5)
	assert.False(t, hasFlag(Detect(newTrade, history, th), Herding))

	assert.False(t, hasFlag(Detect(newTrade, history[:2], th), Herding),
		"two prior trades are not enough to infer herding")
}

func TestFOMOSizeUpAfterWin(t *testing.T) {
	th := DefaultThresholds()

	history := []trading.Trade{trade(trading.Long, 50, 1, 50, 5)}
	flags := Detect(trade(trading.Long, 0, 2, 50, 5), history, th)
	assert.True(t, hasFlag(flags, FOMO))

	flags = Detect(trade(trading.Long, 0, 1, 50, 5), history, th)
	assert.False(t, hasFlag(flags, FOMO), "same size after a win is fine")

	history = []trading.Trade{trade(trading.Long, -50, 1, 50, 5)}
	flags = Detect(trade(trading.Long, 0, 2, 50, 5), history, th)
	assert.False(t, hasFlag(flags, FOMO), "sizing up after a loss is not FOMO")

	assert.False(t, hasFlag(Detect(trade(trading.Long, 0, 2, 50, 5), nil, th), FOMO),
		"empty history means no signal")
}

func TestRulesStackOnOneTrade(t *testing.T) {
	th := DefaultThresholds()
	history := []trading.Trade{
		trade(trading.Long, -20, 1, 50, 5),
		trade(trading.Long, -10, 1, 50, 5),
		trade(trading.Long, -5, 1, 50, 5),
	}
	flags := Detect(trade(trading.Long, 0, 1, 95, 1), history, th)

	assert.True(t, hasFlag(flags, Overconfidence))
	assert.True(t, hasFlag(flags, EarlyExit))
	assert.True(t, hasFlag(flags, RevengeTrading))
	assert.True(t, hasFlag(flags, Herding))
	assert.Len(t, flags, 4)
}

func TestEvidenceNamesTheNumbers(t *testing.T) {
	th := DefaultThresholds()
	flags := Detect(trade(trading.Long, 0, 1, 92, 5), nil, th)
	assert.Len(t, flags, 1)
	assert.Contains(t, flags[0].Evidence, "92")
	assert.Contains(t, flags[0].Evidence, "85")
}

func TestTypesCompactsFlags(t *testing.T) {
	flags := []Flag{{Type: Overconfidence}, {Type: FOMO}}
	assert.Equal(t, []string{"OVERCONFIDENCE", "FOMO"}, Types(flags))
}
