package app

import (
	"strings"
	"time"

	"github.com/examtree/examtree-backend/internal/platform/envutil"
)

type Config struct {
	Port           string
	JWTSecretKey   string
	CacheCapacity  int
	CacheTTL       time.Duration
	AllowedOrigins []string
}

func LoadConfig() Config {
	cfg := Config{
		Port:          envutil.Str("PORT", "8080"),
		JWTSecretKey:  envutil.Str("JWT_SECRET_KEY", "defaultsecret"),
		CacheCapacity: envutil.Int("CACHE_CAPACITY", 512),
		CacheTTL:      envutil.Dur("CACHE_TTL", 60*time.Second),
	}
	if raw := envutil.Str("ALLOWED_ORIGINS", ""); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	return cfg
}
