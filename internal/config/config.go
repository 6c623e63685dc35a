package config

import (
	"dice-io-server/internal/engine"
	"dice-io-server/pkg/logger"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration. Simulation parameters end up in
// engine.Config; the rest belongs to the binaries.
type Config struct {
	Port         string
	WorldWidth   float64
	WorldHeight  float64
	SpawnPadding float64
	BotCount     int
	FrameSize    time.Duration
	MaxCatchUp   int
	JournalDir   string
	Seed         int64
}

func Default() Config {
	ec := engine.NewConfig()
	return Config{
		Port:         "3000",
		WorldWidth:   ec.WorldWidth,
		WorldHeight:  ec.WorldHeight,
		SpawnPadding: ec.SpawnPadding,
		BotCount:     ec.BotCount,
		FrameSize:    ec.FrameSize,
		MaxCatchUp:   ec.MaxCatchUp,
	}
}

// Load reads an optional .env file, then the environment. A missing .env
// is fine; a malformed one or a bad value is not.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if err := cfg.fromEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	logger.Component("config").WithField("port", cfg.Port).Debug("Configuration loaded")
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) fromEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 {
				errs = append(errs, fmt.Errorf("%s: want a positive number, got %q", key, v))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int, min int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < min {
				errs = append(errs, fmt.Errorf("%s: want an integer >= %d, got %q", key, min, v))
				return
			}
			*dst = n
		}
	}

	str("DICE_PORT", &c.Port)
	num("WORLD_WIDTH", &c.WorldWidth)
	num("WORLD_HEIGHT", &c.WorldHeight)
	num("SPAWN_PADDING", &c.SpawnPadding)
	integer("BOT_COUNT", &c.BotCount, 0)
	integer("MAX_CATCHUP", &c.MaxCatchUp, 1)
	str("JOURNAL_DIR", &c.JournalDir)

	var frameMs int
	integer("FRAME_SIZE_MS", &frameMs, 1)
	if frameMs > 0 {
		c.FrameSize = time.Duration(frameMs) * time.Millisecond
	}
	if v, ok := lookup("SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("SEED: %w", err))
		} else {
			c.Seed = seed
		}
	}
	return errors.Join(errs...)
}

// Engine converts to the simulation config, keeping engine defaults for
// everything the environment does not cover.
func (c Config) Engine() engine.Config {
	ec := engine.NewConfig()
	ec.Seed = c.Seed
	ec.WorldWidth = c.WorldWidth
	ec.WorldHeight = c.WorldHeight
	ec.SpawnPadding = c.SpawnPadding
	ec.BotCount = c.BotCount
	ec.FrameSize = c.FrameSize
	ec.MaxCatchUp = c.MaxCatchUp
	return ec
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}
