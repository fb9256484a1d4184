package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"investopal/internal/config"
	"investopal/internal/dashboard"
	"investopal/internal/finance"
	"investopal/internal/logging"
	"investopal/internal/openai"
	"investopal/internal/server"
	"investopal/internal/storage"
	"investopal/internal/telegram"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.New("info").Fatal().Err(err).Msg("config: load failed")
	}
	logger := logging.New(cfg.LogLevel)

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		logger.Fatal().Err(err).Msg("db: open failed")
	}
	defer db.Close()
	if err := storage.InitSchema(db); err != nil {
		logger.Fatal().Err(err).Msg("db: schema failed")
	}
	logger.Info().Str("path", cfg.DBPath).Msg("db: schema ensured (price_cache, chat_prefs, usage_events)")
	store := storage.NewStore(db)

	ttl := cfg.GetCacheTTL()
	market := finance.NewCachedMarket(finance.NewYahooClient(logger), store, ttl, logger)
	go purgePriceCache(store, ttl, logger)

	sources := []finance.NewsSource{}
	if cfg.NewsAPIKey != "" {
		sources = append(sources, finance.NewNewsAPI("", cfg.NewsAPIKey))
	}
	sources = append(sources, finance.NewYahooNews("", logger))
	news := finance.NewFallbackNews(logger, sources...)

	dash, err := dashboard.New(market, news, dashboard.OptionsFromConfig(cfg), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard: invalid options")
	}

	var webhook http.HandlerFunc
	if cfg.TelegramEnabled() {
		var explainer telegram.Explainer
		if c := openai.NewCommentator(cfg.OpenAIKey, cfg.OpenAIModel); c != nil {
			explainer = c
		}
		tg, err := telegram.NewBot(cfg, dash, store, explainer, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram: init failed")
		}
		webhook = tg.WebhookHandler
		logger.Info().Bool("commentary", explainer != nil).Msg("telegram: bot initialized")
	} else {
		logger.Warn().Msg("telegram: no token configured, serving the HTTP API only")
	}

	mux := server.NewHTTPMux(webhook, server.NewAPI(dash, cfg.Defaults, logger))
	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Msg("http: listening")
	if err := server.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}

// purgePriceCache drops expired price rows once per TTL. A non-positive TTL disables it.
func purgePriceCache(store *storage.Store, ttl time.Duration, logger *logging.Logger) {
	if ttl <= 0 {
		logger.Warn().Dur("ttl", ttl).Msg("db: price cache purge disabled")
		return
	}
	t := time.NewTicker(ttl)
	defer t.Stop()
	for range t.C {
		n, err := store.PurgePriceCache(ttl)
		if err != nil {
			logger.Warn().Err(err).Msg("db: price cache purge failed")
			continue
		}
		logger.Debug().Int64("rows", n).Msg("db: price cache purged")
	}
}
