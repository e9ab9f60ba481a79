package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Market  MarketConfig  `yaml:"market"`
	Chart   ChartConfig   `yaml:"chart"`
	Trading TradingConfig `yaml:"trading"`
	Bias    BiasConfig    `yaml:"bias"`
	Journal JournalConfig `yaml:"journal"`
	API     APIConfig     `yaml:"api"`
}

type MarketConfig struct {
	SeedCandles  int           `yaml:"seed_candles"`
	BasePrice    float64       `yaml:"base_price"`
	Volatility   float64       `yaml:"volatility"`
	Drift        float64       `yaml:"drift"`
	FloorRatio   float64       `yaml:"floor_ratio"`
	WickFactor   float64       `yaml:"wick_factor"`
	VolumeMin    float64       `yaml:"volume_min"`
	VolumeMax    float64       `yaml:"volume_max"`
	MutateProb   float64       `yaml:"mutate_prob"`
	MaxCandles   int           `yaml:"max_candles"`
	CandleSpan   time.Duration `yaml:"candle_span"`
	TickInterval time.Duration `yaml:"tick_interval"`
	RNGSeed      int64         `yaml:"rng_seed"`
}

type ChartConfig struct {
	Window          int     `yaml:"window"`
	MarginRatio     float64 `yaml:"margin_ratio"`
	PadLeft         float64 `yaml:"pad_left"`
	PadRight        float64 `yaml:"pad_right"`
	VolumePaneRatio float64 `yaml:"volume_pane_ratio"`
	GridLines       int     `yaml:"grid_lines"`
}

type TradingConfig struct {
	StartingBalance float64 `yaml:"starting_balance"`
	HistoryCap      int     `yaml:"history_cap"`
}

type BiasConfig struct {
	OverconfidenceMin float64 `yaml:"overconfidence_min"`
	EarlyExitBars     int     `yaml:"early_exit_bars"`
	RevengeLosses     int     `yaml:"revenge_losses"`
	HerdingRun        int     `yaml:"herding_run"`
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Market: MarketConfig{
			SeedCandles:  120,
			BasePrice:    100,
			Volatility:   2.0,
			Drift:        0.48,
			FloorRatio:   0.1,
			WickFactor:   0.5,
			VolumeMin:    500,
			VolumeMax:    1500,
			MutateProb:   0.85,
			MaxCandles:   500,
			CandleSpan:   time.Minute,
			TickInterval: 400 * time.Millisecond,
		},
		Chart: ChartConfig{
			Window:          80,
			MarginRatio:     0.05,
			PadLeft:         8,
			PadRight:        64,
			VolumePaneRatio: 0.2,
			GridLines:       4,
		},
		Trading: TradingConfig{
			StartingBalance: 10000,
			HistoryCap:      50,
		},
		Bias: BiasConfig{
			OverconfidenceMin: 85,
			EarlyExitBars:     3,
			RevengeLosses:     2,
			HerdingRun:        3,
		},
		API: APIConfig{
			Enabled: true,
			Addr:    ":8080",
		},
	}
}

func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	if v := os.Getenv("CHARTSIM_ADDR"); v != "" {
		c.API.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("CHARTSIM_LOG_LEVEL")); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("CHARTSIM_JOURNAL_PATH"); v != "" {
		c.Journal.Path = v
	}
	if v := os.Getenv("CHARTSIM_RNG_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Market.RNGSeed = seed
		}
	}
}
