package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/DoyleJ11/blockrush-server/internal/engine"
)

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	Addr     string
	AppEnv   string
	LogLevel string

	RoomCapacity int

	LeaderboardBackend string
	ScoresFile         string
	LeaderboardTop     int

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string
	PingInterval   time.Duration
}

// Development reports whether APP_ENV asks for the console logger.
func (c Config) Development() bool { return c.AppEnv == "development" }

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults and validation.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	c := Config{
		Addr:               get("ADDR", ":3000"),
		AppEnv:             get("APP_ENV", "production"),
		LogLevel:           get("LOG_LEVEL", "info"),
		LeaderboardBackend: strings.ToLower(get("LEADERBOARD_BACKEND", BackendFile)),
		ScoresFile:         get("SCORES_FILE", "scores.json"),
		DBHost:             get("DB_HOST", "localhost"),
		DBUser:             get("DB_USER", "postgres"),
		DBPassword:         get("DB_PASSWORD", ""),
		DBName:             get("DB_NAME", "blockrush"),
		DBSSLMode:          get("DB_SSLMODE", "disable"),
		RedisAddr:          get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      get("REDIS_PASSWORD", ""),
	}

	var err error
	if c.RoomCapacity, err = atoi("ROOM_CAPACITY", get("ROOM_CAPACITY", strconv.Itoa(engine.DefaultCapacity))); err != nil {
		return Config{}, err
	}
	if c.RoomCapacity < 2 || c.RoomCapacity > engine.DefaultCapacity {
		return Config{}, fmt.Errorf("ROOM_CAPACITY must be between 2 and %d, got %d", engine.DefaultCapacity, c.RoomCapacity)
	}

	if c.LeaderboardTop, err = atoi("LEADERBOARD_TOP", get("LEADERBOARD_TOP", "10")); err != nil {
		return Config{}, err
	}
	if c.LeaderboardTop < 1 || c.LeaderboardTop > 100 {
		return Config{}, fmt.Errorf("LEADERBOARD_TOP must be between 1 and 100, got %d", c.LeaderboardTop)
	}

	if c.RedisDB, err = atoi("REDIS_DB", get("REDIS_DB", "0")); err != nil {
		return Config{}, err
	}

	switch c.LeaderboardBackend {
	case BackendFile, BackendMemory, BackendPostgres, BackendRedis:
	default:
		return Config{}, fmt.Errorf("unknown LEADERBOARD_BACKEND %q", c.LeaderboardBackend)
	}

	if c.PingInterval, err = time.ParseDuration(get("PING_INTERVAL", "15s")); err != nil {
		return Config{}, fmt.Errorf("PING_INTERVAL: %w", err)
	}
	if c.PingInterval <= 0 {
		return Config{}, fmt.Errorf("PING_INTERVAL must be positive, got %s", c.PingInterval)
	}

	for _, o := range strings.Split(get("ALLOWED_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, o)
		}
	}
	return c, nil
}

func atoi(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
