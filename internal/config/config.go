package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the server's environment-driven configuration. Defaults suit
// local development; production deployments override via env or a .env
// file loaded in main.
type Config struct {
	Env              string
	Addr             string
	DBPath           string
	JWTSecret        string
	SnapshotInterval time.Duration
	MaxBoards        int
	MaxElements      int
	RejoinPolicy     string
	CORSAllowOrigin  string
}

func Load() Config {
	cfg := Config{
		Env:             getEnv("EASEL_ENV", "dev"),
		Addr:            getEnv("EASEL_ADDR", ":8080"),
		DBPath:          getEnv("EASEL_DB_PATH", "./data/easel.db"),
		JWTSecret:       getEnv("EASEL_JWT_SECRET", "dev-secret-change"),
		RejoinPolicy:    getEnv("EASEL_REJOIN_POLICY", "leave"),
		CORSAllowOrigin: getEnv("EASEL_CORS_ORIGIN", "*"),
	}
	cfg.SnapshotInterval = getEnvDuration("EASEL_SNAPSHOT_INTERVAL", 15*time.Second)
	cfg.MaxBoards = getEnvInt("EASEL_MAX_BOARDS", 1000)
	cfg.MaxElements = getEnvInt("EASEL_MAX_ELEMENTS", 10000)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
