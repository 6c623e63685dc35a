package main

import (
	"context"
	"dice-io-server/internal/config"
	"dice-io-server/internal/dice"
	"dice-io-server/internal/engine"
	"dice-io-server/internal/infrastructure/storage"
	"dice-io-server/internal/network"
	"dice-io-server/internal/server"
	"dice-io-server/internal/version"
	"dice-io-server/pkg/logger"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const journalFlushEvery = 5 * time.Second

func init() {
	logger.Init()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Invalid configuration")
	}

	// Flags override the environment.
	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP/WebSocket port")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Simulation seed (0 for random)")
	flag.IntVar(&cfg.BotCount, "bots", cfg.BotCount, "Number of server-side bots")
	flag.StringVar(&cfg.JournalDir, "journal", cfg.JournalDir, "Directory for the fight journal (empty to disable)")
	flag.Parse()

	logger.Log.WithFields(version.Fields()).Info("Starting dice arena...")

	if err := dice.SelfTest(); err != nil {
		logger.Log.WithError(err).Fatal("Dice catalog self-test failed")
	}

	game := engine.NewGame(cfg.Engine(), network.NewBroadcaster())
	logger.Log.Infof("🎲 Using master seed: %d", game.Config().Seed)

	var journal *storage.FightJournal
	if cfg.JournalDir != "" {
		journal, err = storage.OpenFightJournal(cfg.JournalDir, game.Config().Seed)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to open fight journal")
		}
		game.Journal = journal
		logger.Log.WithField("path", journal.Path).Info("Fight journal enabled")
	}
	game.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(game, cfg.Addr())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return game.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	if journal != nil {
		g.Go(func() error { return flushJournal(ctx, journal, journalFlushEvery) })
	}

	if err := g.Wait(); err != nil {
		logger.Log.WithError(err).Error("Server stopped with error")
	}
	logger.Log.Info("Shutting down...")

	// The loop has returned, so nothing appends any more.
	if journal != nil {
		if err := journal.Close(); err != nil {
			logger.Log.WithError(err).Error("Failed to close fight journal")
		} else {
			logger.Log.WithField("fights", journal.Records()).Info("Fight journal saved")
		}
	}

	logger.Log.Info("Done.")
}

// flushJournal pushes buffered fights to disk so a crash loses at most one
// interval.
func flushJournal(ctx context.Context, j *storage.FightJournal, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := j.Flush(); err != nil {
				logger.Log.WithError(err).Warn("Failed to flush fight journal")
			}
		}
	}
}
