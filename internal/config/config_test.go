package config

import (
	"dice-io-server/pkg/logger"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func mapLookup(env map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, c Config)
		wantErr bool
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			check: func(t *testing.T, c Config) {
				if c.Port != "3000" || c.BotCount != 30 || c.FrameSize != 16*time.Millisecond || c.JournalDir != "" {
					t.Errorf("defaults = %+v", c)
				}
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"DICE_PORT":     "8081",
				"WORLD_WIDTH":   "1000",
				"BOT_COUNT":     "0",
				"FRAME_SIZE_MS": "20",
				"MAX_CATCHUP":   "3",
				"JOURNAL_DIR":   "/tmp/j",
				"SEED":          "-5",
			},
			check: func(t *testing.T, c Config) {
				if c.Port != "8081" || c.WorldWidth != 1000 || c.BotCount != 0 ||
					c.FrameSize != 20*time.Millisecond || c.MaxCatchUp != 3 ||
					c.JournalDir != "/tmp/j" || c.Seed != -5 {
					t.Errorf("overrides = %+v", c)
				}
			},
		},
		{name: "bad width", env: map[string]string{"WORLD_WIDTH": "wide"}, wantErr: true},
		{name: "negative bots", env: map[string]string{"BOT_COUNT": "-1"}, wantErr: true},
		{name: "zero catch-up", env: map[string]string{"MAX_CATCHUP": "0"}, wantErr: true},
		{name: "bad seed", env: map[string]string{"SEED": "x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			err := c.fromEnv(mapLookup(tt.env))
			if (err != nil) != tt.wantErr {
				t.Fatalf("fromEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestEngine(t *testing.T) {
	c := Default()
	c.Seed = 9
	c.WorldHeight = 500
	ec := c.Engine()
	if ec.Seed != 9 || ec.WorldHeight != 500 || ec.ViewRadius == 0 || ec.CommandBuffer == 0 {
		t.Errorf("Engine() = %+v", ec)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DICE_PORT=4455\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("DICE_PORT") })

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Addr() != ":4455" {
		t.Errorf("Addr() = %q", c.Addr())
	}
}

func TestLoad_MissingDotEnv(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env must be ignored: %v", err)
	}
}
