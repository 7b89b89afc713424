package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultAPIBaseURL = "https://admin.soarfare.com/api"

type Config struct {
	AppEnv           string
	HTTPAddr         string
	MetricsAddr      string
	APIBaseURL       string
	APIRPS           int
	FlightSearchMock bool
	MySQLDSN         string
	RedisAddr        string
	RedisDB          int
	RedisPass        string
	CacheTTL         time.Duration
	SessionKey       string
	SessionTTL       time.Duration
	CORSOrigins      []string
	SyncWorkers      int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:           env("APP_ENV", "prod"),
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		MetricsAddr:      env("METRICS_ADDR", ""),
		APIBaseURL:       env("API_BASE_URL", env("NEXT_PUBLIC_API_BASE_URL", DefaultAPIBaseURL)),
		APIRPS:           atoi("API_RPS", 20),
		FlightSearchMock: envBool("FLIGHT_SEARCH_MOCK", false),
		MySQLDSN:         env("MYSQL_DSN", "root:root@tcp(localhost:3306)/soarfare?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		RedisPass:        env("REDIS_PASSWORD", ""),
		RedisDB:          atoi("REDIS_DB", 0),
		CacheTTL:         time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		SessionKey:       env("SESSION_KEY", ""),
		SessionTTL:       time.Duration(atoi("SESSION_TTL_SECONDS", 7200)) * time.Second,
		CORSOrigins:      splitList(env("CORS_ORIGINS", "http://localhost:3000")),
		SyncWorkers:      atoi("SYNC_WORKERS", 2),
	}
	if c.SessionKey == "" {
		log.Warn().Msg("SESSION_KEY is empty; session cookies use an insecure development key")
		c.SessionKey = "soarfare-dev-session-key-change-me"
	}
	if c.FlightSearchMock && c.AppEnv == "prod" {
		log.Warn().Msg("FLIGHT_SEARCH_MOCK is enabled in prod; failed searches will return fabricated flights")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
