package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"

	WordsBuiltin  = "builtin"
	WordsFile     = "file"
	WordsPostgres = "postgres"
)

type Config struct {
	Port           string   `envconfig:"PORT" default:"3000"`
	Debug          bool     `envconfig:"DEBUG" default:"false"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	StoreBackend string `envconfig:"STORE_BACKEND" default:"memory"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	BoltPath     string `envconfig:"BOLT_PATH" default:"rooms.db"`
	CacheSize    int    `envconfig:"ROOM_CACHE_SIZE" default:"1024"`

	WordsSource string `envconfig:"WORDS_SOURCE" default:"builtin"`
	WordsFile   string `envconfig:"WORDS_FILE" default:"words.txt"`

	AdvanceDelay time.Duration `envconfig:"ADVANCE_DELAY" default:"500ms"`
	EventTimeout time.Duration `envconfig:"EVENT_TIMEOUT" default:"5s"`
	EventRate    float64       `envconfig:"EVENT_RATE" default:"5"`
	EventBurst   int           `envconfig:"EVENT_BURST" default:"10"`

	RoomIdleTTL     time.Duration `envconfig:"ROOM_IDLE_TTL" default:"2h"`
	FinishedRoomTTL time.Duration `envconfig:"FINISHED_ROOM_TTL" default:"10m"`
	SweepInterval   time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`

	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	DBConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"1m"`
}

func Default() Config {
	return Config{
		Port:              "3000",
		AllowedOrigins:    []string{"*"},
		StoreBackend:      BackendMemory,
		BoltPath:          "rooms.db",
		CacheSize:         1024,
		WordsSource:       WordsBuiltin,
		WordsFile:         "words.txt",
		AdvanceDelay:      500 * time.Millisecond,
		EventTimeout:      5 * time.Second,
		EventRate:         5,
		EventBurst:        10,
		RoomIdleTTL:       2 * time.Hour,
		FinishedRoomTTL:   10 * time.Minute,
		SweepInterval:     time.Minute,
		DBMaxOpenConns:    10,
		DBMaxIdleConns:    10,
		DBConnMaxLifetime: 5 * time.Minute,
		DBConnMaxIdleTime: time.Minute,
	}
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("processing the config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendBolt:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store backend %q", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	switch c.WordsSource {
	case WordsBuiltin, WordsFile:
	case WordsPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for words source %q", c.WordsSource)
		}
	default:
		return fmt.Errorf("unknown words source %q", c.WordsSource)
	}
	if c.AdvanceDelay < 0 {
		return fmt.Errorf("ADVANCE_DELAY must not be negative")
	}
	for _, origin := range c.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" || strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
			continue
		}
		return fmt.Errorf("ALLOWED_ORIGINS entry %q must be * or an http(s) origin", origin)
	}
	if c.EventBurst < 1 {
		return fmt.Errorf("EVENT_BURST must be at least 1")
	}
	return nil
}

// NeedsDatabase reports whether any component talks to Postgres.
func (c Config) NeedsDatabase() bool {
	return c.StoreBackend == BackendPostgres || c.WordsSource == WordsPostgres
}
