package main

import (
	"Curator/ai"
	"Curator/bot"
	"Curator/core"
	"Curator/holder"
	"Curator/lib/sl"
	"Curator/storage"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf := core.MustLoad(*configPath)
	log := setupLogger(conf.Env)

	// the process must not serve requests without provider credentials
	if conf.OpenAIApiKey == "" {
		log.Error("openai_api_key is required")
		os.Exit(1)
	}

	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("model", conf.Model),
		sl.Secret(conf.OpenAIApiKey),
	).Info("starting curator bot")

	// Initialize storage based on config
	var store storage.CaptionStorage
	var prefs storage.PreferencesStorage
	if conf.Mongo.Enabled {
		mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%s",
			conf.Mongo.User, conf.Mongo.Password,
			conf.Mongo.Host, conf.Mongo.Port)
		mongoStore, err := storage.NewMongoStorage(mongoURI, conf.Mongo.Database, log)
		if err != nil {
			log.With(
				slog.String("db", conf.Mongo.Database),
				slog.String("user", conf.Mongo.User),
				slog.String("host", conf.Mongo.Host),
			).Error("falling back to memory", sl.Err(err))
			store = storage.NewMemoryStorage()
			prefs = storage.NewMemoryPreferencesStorage()
		} else {
			store = mongoStore
			prefs, err = storage.NewMongoPreferencesStorage(mongoStore.GetClient(), mongoStore.GetDatabase(), log)
			if err != nil {
				log.Error("falling back to memory preferences", sl.Err(err))
				prefs = storage.NewMemoryPreferencesStorage()
			}
			log.Info("using MongoDB storage")
		}
	} else {
		store = storage.NewMemoryStorage()
		prefs = storage.NewMemoryPreferencesStorage()
		log.Info("using in-memory storage")
	}

	history := holder.NewHistoryManager(store)
	describer := ai.NewDescriber(conf, log, history, prefs)

	analyzer := ai.NewStyleAnalyzer(conf, log, history, prefs)
	analyzer.StartBackgroundAnalysis()

	tgBot, err := bot.NewTgBot(conf, log)
	if err != nil {
		log.Error("creating telegram", sl.Err(err))
		return
	}

	tgBot.SetCaptions(describer)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in goroutine
	go func() {
		if err := tgBot.Start(); err != nil {
			log.Error("bot stopped with error", sl.Err(err))
		}
	}()

	log.Info("bot started")

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))

	// Graceful shutdown
	tgBot.Stop()
	analyzer.Stop()

	// Close storage connections
	if err := describer.Close(); err != nil {
		log.Error("error closing caption storage", sl.Err(err))
	}
	if err := prefs.Close(); err != nil {
		log.Error("error closing preferences storage", sl.Err(err))
	}

	log.Info("shutdown complete")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
