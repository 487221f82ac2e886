package scenefile

import (
	"fmt"

	rt "github.com/arnodel/golua/runtime"

	"github.com/gogpu/paint"
	"github.com/gogpu/paint/layers"
)

// Config holds the task and compositor settings of a scene file. Zero
// numeric fields keep the task defaults.
type Config struct {
	Backend    paint.Backend
	Workers    int
	CacheBytes int
	QueueDepth int
	TileSize   int
	Scale      float64
}

// DefaultConfig returns the settings used when paint.config is absent.
func DefaultConfig() Config {
	return Config{
		Backend:  paint.BackendCPU,
		TileSize: layers.DefaultTileSize,
		Scale:    1,
	}
}

// Options converts the settings into task options.
func (c Config) Options() []paint.Option {
	return []paint.Option{
		paint.WithBackend(c.Backend),
		paint.WithWorkers(c.Workers),
		paint.WithCacheBytes(c.CacheBytes),
		paint.WithQueueDepth(c.QueueDepth),
	}
}

// extractConfig reads paint.config into cfg.
func extractConfig(cfg *Config, table *rt.Table) error {
	if val := getTableString(table, "backend"); val != nil {
		b, err := paint.ParseBackend(*val)
		if err != nil {
			return fmt.Errorf("scenefile: invalid backend: %w", err)
		}
		cfg.Backend = b
	}

	ints := []struct {
		key    string
		target *int
	}{
		{"workers", &cfg.Workers},
		{"cache_bytes", &cfg.CacheBytes},
		{"queue_depth", &cfg.QueueDepth},
		{"tile_size", &cfg.TileSize},
	}
	for _, f := range ints {
		if val := getTableInt(table, f.key); val != nil {
			if *val < 0 {
				return fmt.Errorf("scenefile: %s must not be negative, got %d", f.key, *val)
			}
			*f.target = *val
		}
	}
	if cfg.TileSize == 0 {
		cfg.TileSize = layers.DefaultTileSize
	}

	if val := getTableFloat(table, "scale"); val != nil {
		if *val <= 0 {
			return fmt.Errorf("scenefile: scale must be positive, got %g", *val)
		}
		cfg.Scale = *val
	}
	return nil
}
