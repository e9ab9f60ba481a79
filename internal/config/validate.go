package config

import "fmt"

// Validate checks high-impact runtime configuration constraints.
func (c Config) Validate() error {
	if c.Market.SeedCandles < 0 {
		return fmt.Errorf("market.seed_candles must be >= 0, got %d", c.Market.SeedCandles)
	}
	if c.Market.BasePrice <= 0 {
		return fmt.Errorf("market.base_price must be > 0, got %f", c.Market.BasePrice)
	}
	if c.Market.Volatility <= 0 {
		return fmt.Errorf("market.volatility must be > 0, got %f", c.Market.Volatility)
	}
	if c.Market.FloorRatio <= 0 || c.Market.FloorRatio >= 1 {
		return fmt.Errorf("market.floor_ratio must be within (0,1), got %f", c.Market.FloorRatio)
	}
	if c.Market.VolumeMax < c.Market.VolumeMin || c.Market.VolumeMin < 0 {
		return fmt.Errorf("market volume band [%f,%f] is invalid", c.Market.VolumeMin, c.Market.VolumeMax)
	}
	if c.Market.MutateProb < 0 || c.Market.MutateProb > 1 {
		return fmt.Errorf("market.mutate_prob must be within [0,1], got %f", c.Market.MutateProb)
	}
	if c.Market.TickInterval <= 0 {
		return fmt.Errorf("market.tick_interval must be > 0, got %s", c.Market.TickInterval)
	}
	if c.Market.MaxCandles > 0 && c.Market.SeedCandles > c.Market.MaxCandles {
		return fmt.Errorf("market.seed_candles %d exceeds market.max_candles %d", c.Market.SeedCandles, c.Market.MaxCandles)
	}

	if c.Chart.Window <= 0 {
		return fmt.Errorf("chart.window must be > 0, got %d", c.Chart.Window)
	}
	if c.Chart.MarginRatio < 0 || c.Chart.MarginRatio >= 1 {
		return fmt.Errorf("chart.margin_ratio must be within [0,1), got %f", c.Chart.MarginRatio)
	}
	if c.Chart.VolumePaneRatio < 0 || c.Chart.VolumePaneRatio >= 1 {
		return fmt.Errorf("chart.volume_pane_ratio must be within [0,1), got %f", c.Chart.VolumePaneRatio)
	}

	if c.Trading.StartingBalance <= 0 {
		return fmt.Errorf("trading.starting_balance must be > 0, got %f", c.Trading.StartingBalance)
	}
	if c.Trading.HistoryCap <= 0 {
		return fmt.Errorf("trading.history_cap must be > 0, got %d", c.Trading.HistoryCap)
	}

	if c.Bias.OverconfidenceMin < 0 || c.Bias.OverconfidenceMin > 100 {
		return fmt.Errorf("bias.overconfidence_min must be within [0,100], got %f", c.Bias.OverconfidenceMin)
	}
	if c.Bias.EarlyExitBars < 0 {
		return fmt.Errorf("bias.early_exit_bars must be >= 0, got %d", c.Bias.EarlyExitBars)
	}

	return nil
}
