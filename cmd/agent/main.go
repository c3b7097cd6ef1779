package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/classifier"
	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/database"
	"github.com/Wikid82/sentinel/internal/live"
	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/scheduler"
	"github.com/Wikid82/sentinel/internal/server"
	"github.com/Wikid82/sentinel/internal/services"
	"github.com/Wikid82/sentinel/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (falls back to AGENT_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging)
	log := logger.Log()

	// Handle CLI commands
	if args := flag.Args(); len(args) > 0 && args[0] == "token" {
		if len(args) != 2 {
			log.Fatalf("Usage: %s token <subject>", os.Args[0])
		}
		token, err := issueToken(cfg.API.JWTSecret, args[1], 24*time.Hour)
		if err != nil {
			log.WithError(err).Fatal("issue token")
		}
		fmt.Println(token)
		return
	}

	log.Infof("starting %s on version %s", version.Name, version.Full())

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}

	hub := live.NewHub(live.DefaultQueueSize)

	srv, err := server.New(db, hub, cfg)
	if err != nil {
		log.WithError(err).Fatal("build server")
	}

	sched := buildScheduler(db, hub, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Run(srvCtx) }()

	sched.Start()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-srvErr:
		log.WithError(err).Error("server error")
		srvErr <- nil
	}

	// The running cycle finishes before the HTTP server goes away.
	sched.Stop()
	stopServer()
	if err := <-srvErr; err != nil {
		log.WithError(err).Error("server shutdown")
	}
	hub.Close()
	log.Info("shutdown complete")
}

func setupLogging(cfg config.LoggingConfig) {
	var out io.Writer = os.Stdout
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err == nil {
			rotator := &lumberjack.Logger{
				Filename:   filepath.Join(cfg.Dir, "agent.log"),
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
			// Log to both stdout and file
			out = io.MultiWriter(os.Stdout, rotator)
		}
	}
	logger.Init(cfg.Debug, out)
}

func buildScheduler(db *gorm.DB, hub *live.Hub, cfg config.Config) *scheduler.Scheduler {
	security := services.NewSecurityService(db)
	notifications := services.NewNotificationService(db, cfg.Notify.SlackURL)
	actions := services.NewActionService(db, services.DefaultEffects(security, notifications), hub)

	correlation := services.NewCorrelationService(db, classifier.New(cfg.LLM), actions, hub)
	correlation.AtomicConsume = cfg.Agent.AtomicConsume

	ping := func(ctx context.Context) error { return database.Ping(ctx, db) }
	return scheduler.New(correlation, ping, cfg.Agent.PollInterval, cfg.Agent.ReconnectBackoff)
}

// issueToken signs a read API token for subject.
func issueToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("api.jwt_secret is not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    version.Name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
