package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable the service reads from the environment. Margin
// and VIP odds are business configuration, not design constants.
type Config struct {
	Port        string   `envconfig:"PORT" default:"8080"`
	DatabaseURL string   `envconfig:"DATABASE_URL" required:"true"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"seatjumper.events"`

	CurveExponent     float64 `envconfig:"CURVE_EXPONENT" default:"2.5"`
	DefaultMarginPct  float64 `envconfig:"DEFAULT_MARGIN_PCT" default:"0.30"`
	VIPWinProbability float64 `envconfig:"VIP_WIN_PROBABILITY" default:"0.0002"`

	PoolFloor          int           `envconfig:"POOL_FLOOR" default:"5"`
	MonitorInterval    time.Duration `envconfig:"MONITOR_INTERVAL" default:"30s"`
	MonitorTargets     []string      `envconfig:"MONITOR_TARGETS"`
	ReplenishQueueSize int           `envconfig:"REPLENISH_QUEUE_SIZE" default:"64"`

	PreviewCacheTTL time.Duration `envconfig:"PREVIEW_CACHE_TTL" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SupplyTarget is one (game, bundle size, floor) key the background monitor
// keeps stocked.
type SupplyTarget struct {
	GameID     string
	BundleSize int
	Floor      int
}

// ParseSupplyTargets parses MONITOR_TARGETS entries of the form
// "gameID:bundleSize:floor". A missing floor falls back to defaultFloor.
func ParseSupplyTargets(entries []string, defaultFloor int) ([]SupplyTarget, error) {
	targets := make([]SupplyTarget, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("monitor target %q: want gameID:bundleSize[:floor]", entry)
		}
		size, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("monitor target %q: bad bundle size: %w", entry, err)
		}
		floor := defaultFloor
		if len(parts) == 3 {
			floor, err = strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("monitor target %q: bad floor: %w", entry, err)
			}
		}
		targets = append(targets, SupplyTarget{GameID: parts[0], BundleSize: size, Floor: floor})
	}
	return targets, nil
}
