package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Wikid82/sentinel/internal/config"
	"github.com/Wikid82/sentinel/internal/database"
	"github.com/Wikid82/sentinel/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (falls back to AGENT_CONFIG)")
	count := flag.Int("count", 10, "number of random logs to insert when -interval is 0")
	interval := flag.Duration("interval", 0, "insert one random log per interval until interrupted")
	scenario := flag.Bool("scenario", false, "seed the brute-force correlation scenario and exit")
	flag.Parse()

	logger.Init(false, os.Stdout)
	log := logger.Component("seed")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	if *scenario {
		rows, err := seedScenario(db, time.Now().UTC())
		if err != nil {
			log.WithError(err).Fatal("seed scenario")
		}
		fmt.Printf("✓ Seeded scenario with %d logs (trigger id %d)\n", len(rows), rows[1].ID)
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if *interval <= 0 {
		for i := 0; i < *count; i++ {
			if err := insertRandom(db, rng); err != nil {
				log.WithError(err).Fatal("insert log")
			}
		}
		fmt.Printf("✓ Inserted %d logs\n", *count)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	log.WithField("interval", interval.String()).Info("ingesting logs until interrupted")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := insertRandom(db, rng); err != nil {
				log.WithError(err).Warn("failed to insert log")
			}
		}
	}
}

func insertRandom(db *gorm.DB, rng *rand.Rand) error {
	entry := randomLog(rng, time.Now())
	if err := db.Create(&entry).Error; err != nil {
		return err
	}
	logger.Component("seed").WithFields(map[string]interface{}{
		"id":       entry.ID,
		"severity": entry.Severity,
		"source":   entry.Source,
		"ip":       entry.IPAddress,
	}).Info("ingested log")
	return nil
}
