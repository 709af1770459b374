// Package main is the entry point of the application
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tecu23/match-server/internal/auth"
	"github.com/tecu23/match-server/pkg/config"
	"github.com/tecu23/match-server/pkg/events"
	"github.com/tecu23/match-server/pkg/game"
	"github.com/tecu23/match-server/pkg/repository"
	"github.com/tecu23/match-server/pkg/server"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// application encapsulates global dependencies
type application struct {
	Auth      *auth.APIKeyAuth
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Hub       *server.Hub
	Repo      repository.GameRepository
	Server    *http.Server

	StartTime time.Time
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.String("port", "8080", "server port")
	flag.Parse()

	// Initialize logger
	logger := initLogger(*debug)
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	cfg := config.Load(*debug, *port)

	if cfg.FrontendOrigin != "" {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return cfg.FrontendOrigin == r.Header.Get("Origin")
		}
	} else {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}

	// Initialize event publisher with a logging subscriber
	publisher := events.NewPublisher()
	publisher.SubscribeAll(func(event events.Event) {
		logger.Debug("event published",
			zap.String("type", string(event.Type)),
			zap.Any("payload", event.Payload))
	})

	// Initialize repository: Postgres when configured, in-memory otherwise
	var repo repository.GameRepository
	if cfg.DatabaseURL != "" {
		pg, err := repository.NewPostgresRepository(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("initialize repository error", zap.Error(err))
		}
		defer pg.Close()
		repo = pg
	} else {
		logger.Info("no DATABASE_URL configured, using in-memory repository")
		repo = repository.NewInMemoryRepository(logger)
	}

	session := game.NewSession(cfg.InitialTimeMs, logger)
	hub := server.NewHub(session, repo, publisher, logger)

	app := &application{
		Auth:      auth.NewAPIKeyAuth(cfg.APIKeys),
		Logger:    logger,
		Config:    cfg,
		Hub:       hub,
		Publisher: publisher,
		Repo:      repo,
		StartTime: time.Now(),
	}

	go app.Hub.Run()

	if err := app.serve(); err != nil {
		logger.Fatal("error serving", zap.Error(err))
	}
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}

// Shutdown cleans up resources
func (app *application) Shutdown() {
	// Shut down hub
	if app.Hub != nil {
		app.Hub.Shutdown()
	}

	app.Logger.Info("All components shut down successfully")
}
