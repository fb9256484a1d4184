package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"investopal/internal/analysis"
)

type Config struct {
	TelegramToken    string `toml:"telegram_token"`
	WebhookPublicURL string `toml:"webhook_public_url" validate:"required_with=TelegramToken"`
	OpenAIKey        string `toml:"openai_api_key"`
	OpenAIModel      string `toml:"openai_model" validate:"required"`
	NewsAPIKey       string `toml:"news_api_key"`
	Port             string `toml:"port" validate:"required,numeric"`
	DBPath           string `toml:"db_path" validate:"required"`
	LogLevel         string `toml:"log_level" validate:"oneof=debug info warn error"`
	CacheTTL         string `toml:"cache_ttl"`
	CurrencySymbol   string `toml:"currency_symbol"`

	Analysis AnalysisConfig `toml:"analysis"`
	Advice   AdviceConfig   `toml:"advice"`
	Defaults DefaultsConfig `toml:"defaults"`
	Profiles []Profile      `toml:"profiles" validate:"min=1,dive"`
}

// AnalysisConfig parameterizes the metrics calculator and the projector.
type AnalysisConfig struct {
	TradingDaysPerYear  int     `toml:"trading_days_per_year" validate:"gt=0"`
	RollingWindow       int     `toml:"rolling_window" validate:"gte=2"`
	ConservativeCeiling float64 `toml:"conservative_ceiling" validate:"gt=0"`
	ModerateCeiling     float64 `toml:"moderate_ceiling" validate:"gtfield=ConservativeCeiling"`
	PeriodsPerYear      int     `toml:"periods_per_year" validate:"gt=0,lte=366"`
	MaxYears            int     `toml:"max_years" validate:"gte=1,lte=100"`
}

// AdviceConfig holds the advisory rule table thresholds.
type AdviceConfig struct {
	StrongSharpe float64 `toml:"strong_sharpe"`
	PoorSharpe   float64 `toml:"poor_sharpe" validate:"ltefield=StrongSharpe"`
	FitSharpe    float64 `toml:"fit_sharpe"`
	// ProfileSource is "selected" (compare computed category with the user's choice)
	// or "computed" (the computed category drives the profile shown).
	ProfileSource string `toml:"profile_source" validate:"oneof=selected computed"`
}

// DefaultsConfig seeds the sidebar-style inputs when a chat has no preferences yet.
type DefaultsConfig struct {
	Risk                string  `toml:"risk" validate:"required"`
	InvestmentAmount    float64 `toml:"investment_amount" validate:"gte=0"`
	MonthlyContribution float64 `toml:"monthly_contribution" validate:"gte=0"`
	Years               int     `toml:"years" validate:"gte=1,lte=50"`
	Window              string  `toml:"window" validate:"required"`
	NewsLimit           int     `toml:"news_limit" validate:"gte=1,lte=20"`
}

// Profile describes one risk preference the user can select.
type Profile struct {
	Name           string   `toml:"name" json:"name" validate:"required"`
	Description    string   `toml:"description" json:"description"`
	StockType      string   `toml:"stock_type" json:"stock_type"`
	ExpectedReturn float64  `toml:"expected_return" json:"expected_return" validate:"gte=-1,lte=1"`
	Color          string   `toml:"color" json:"color"`
	Examples       []string `toml:"examples" json:"examples" validate:"min=1"`
}

// NewDefaultConfig returns the built-in configuration.
func NewDefaultConfig() *Config {
	return &Config{
		OpenAIModel:    "gpt-4",
		Port:           "9095",
		DBPath:         "/app/data/investopal.db",
		LogLevel:       "info",
		CacheTTL:       "6h",
		CurrencySymbol: "₹",
		Analysis: AnalysisConfig{
			TradingDaysPerYear:  analysis.DefaultTradingDaysPerYear,
			RollingWindow:       analysis.DefaultRollingWindow,
			ConservativeCeiling: analysis.ConservativeCeiling,
			ModerateCeiling:     analysis.ModerateCeiling,
			PeriodsPerYear:      analysis.DefaultPeriodsPerYear,
			MaxYears:            50,
		},
		Advice: AdviceConfig{
			StrongSharpe:  1.5,
			PoorSharpe:    0.5,
			FitSharpe:     1.0,
			ProfileSource: "selected",
		},
		Defaults: DefaultsConfig{
			Risk:                "Conservative",
			InvestmentAmount:    50000,
			MonthlyContribution: 10000,
			Years:               15,
			Window:              "1y",
			NewsLimit:           3,
		},
		Profiles: []Profile{
			{
				Name:           "Conservative",
				Description:    "Low risk, stable returns. Focus on capital preservation.",
				StockType:      "large-cap",
				ExpectedReturn: 0.05,
				Color:          "#28a745",
				Examples:       []string{"AAPL", "MSFT", "JNJ"},
			},
			{
				Name:           "Moderate",
				Description:    "Balanced risk-reward: a mix of growth and stability.",
				StockType:      "large & mid-cap",
				ExpectedReturn: 0.08,
				Color:          "#ffc107",
				Examples:       []string{"GOOGL", "AMZN", "NVDA"},
			},
			{
				Name:           "Aggressive",
				Description:    "High risk, high returns, focused on growth stocks.",
				StockType:      "small-cap & high-growth",
				ExpectedReturn: 0.12,
				Color:          "#dc3545",
				Examples:       []string{"TSLA", "GME", "AMC"},
			},
		},
	}
}

// Load reads defaults, then each TOML file in order, then .env and the environment.
func Load(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	// .env never overrides variables already set in the process environment
	_ = godotenv.Load()

	if p := os.Getenv("CONFIG_PATH"); p != "" {
		paths = append(paths, p)
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		// a file that declares [[profiles]] replaces the whole list
		prev := cfg.Profiles
		cfg.Profiles = nil
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if len(cfg.Profiles) == 0 {
			cfg.Profiles = prev
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("TELEGRAM_BOT_TOKEN", &cfg.TelegramToken)
	str("WEBHOOK_PUBLIC_URL", &cfg.WebhookPublicURL)
	str("OPENAI_API_KEY", &cfg.OpenAIKey)
	str("OPENAI_MODEL", &cfg.OpenAIModel)
	str("NEWS_API_KEY", &cfg.NewsAPIKey)
	str("PORT", &cfg.Port)
	str("DB_PATH", &cfg.DBPath)
	str("CACHE_TTL", &cfg.CacheTTL)
	str("CURRENCY_SYMBOL", &cfg.CurrencySymbol)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("ROLLING_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.RollingWindow = n
		}
	}
}

// Validate checks struct tags and that every profile names a known risk category.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := map[analysis.RiskCategory]bool{}
	for _, p := range c.Profiles {
		cat, err := analysis.ParseRiskCategory(p.Name)
		if err != nil {
			return fmt.Errorf("invalid config: profile: %w", err)
		}
		if seen[cat] {
			return fmt.Errorf("invalid config: duplicate profile for %s", cat)
		}
		seen[cat] = true
	}
	if _, err := analysis.ParseRiskCategory(c.Defaults.Risk); err != nil {
		return fmt.Errorf("invalid config: defaults.risk: %w", err)
	}
	return nil
}

// TelegramEnabled reports whether a bot token was configured.
func (c *Config) TelegramEnabled() bool { return c.TelegramToken != "" }

// GetCacheTTL parses cache_ttl, falling back to 6h for invalid or non-positive values.
func (c *Config) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 6 * time.Hour
	}
	return d
}

// Params converts the analysis section to calculator parameters.
func (c *Config) Params() analysis.Params {
	return analysis.Params{
		TradingDaysPerYear: c.Analysis.TradingDaysPerYear,
		RollingWindow:      c.Analysis.RollingWindow,
		Thresholds: analysis.Thresholds{
			Conservative: c.Analysis.ConservativeCeiling,
			Moderate:     c.Analysis.ModerateCeiling,
		},
	}
}
