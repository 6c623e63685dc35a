package main

import (
	"context"
	"dice-io-server/internal/agent"
	"dice-io-server/pkg/api"
	"dice-io-server/pkg/logger"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func init() {
	logger.Init()
}

func main() {
	var (
		url       string
		count     int
		codecName string
		seed      int64
	)
	flag.StringVar(&url, "url", "ws://localhost:3000/ws", "Server websocket URL")
	flag.IntVar(&count, "n", 5, "Number of bots")
	flag.StringVar(&codecName, "codec", "json", "Wire codec: json or msgpack")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "Seed for bot decisions")
	flag.Parse()

	codec, err := api.CodecByName(codecName)
	if err != nil {
		logger.Log.WithError(err).Fatal("Bad codec")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		bot := agent.NewBot(url, fmt.Sprintf("Agent-%d", i+1), codec, seed+int64(i))
		g.Go(func() error { return bot.Run(ctx) })
	}
	logger.Log.WithField("bots", count).Info("Bots started")

	if err := g.Wait(); err != nil {
		logger.Log.WithError(err).Error("Bot swarm stopped")
		os.Exit(1)
	}
	logger.Log.Info("Done.")
}
