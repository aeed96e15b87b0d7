package tyjson

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// legacyEnvKeys maps keys used by older deployments to their current name.
var legacyEnvKeys = map[string]string{
	"TTDF_DEBUG":         "DEBUG",
	"TTDF_RESTAPI":       "REST_API_ENABLED",
	"TTDF_RESTAPI_ROUTE": "BASE_PATH",
	"REST_API_ROUTE":     "BASE_PATH",
	"REST_API_TOKEN":     "REST_API_TOKEN_VALUE",
	"AI_API_ENDPOINT":    "AI_ENDPOINT",
	"RABBITMQ_URL":       "AMQP_URL",
}

// LoadConfig reads configuration from the environment, after loading the
// given .env files (".env" when none are named). Missing files are not an
// error.
func LoadConfig(files ...string) Config {
	if err := godotenv.Load(files...); err != nil {
		log.Println("tyjson: no .env file loaded")
	}
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	for _, k := range migrateLegacyEnv(env) {
		log.Printf("tyjson: environment key %s is deprecated, use %s", k, legacyEnvKeys[k])
	}
	return configFromEnv(env)
}

// migrateLegacyEnv rewrites legacy keys in place and returns the ones it
// moved. A current key that is already set wins over its legacy alias.
func migrateLegacyEnv(env map[string]string) []string {
	var moved []string
	for old, cur := range legacyEnvKeys {
		v, ok := env[old]
		if !ok {
			continue
		}
		if _, set := env[cur]; !set {
			env[cur] = v
		}
		delete(env, old)
		moved = append(moved, old)
	}
	return moved
}

func configFromEnv(env map[string]string) Config {
	e := envReader(env)
	return Config{
		Addr:              e.getString("ADDR", ""),
		BasePath:          e.getString("BASE_PATH", ""),
		DatabasePath:      e.getString("DATABASE_PATH", ""),
		SiteURL:           e.getString("SITE_URL", ""),
		ThemeName:         e.getString("THEME_NAME", ""),
		ThemeVersion:      e.getString("THEME_VERSION", ""),
		Timezone:          e.getString("TIMEZONE", ""),
		Debug:             e.getBool("DEBUG", false),
		Disabled:          !e.getBool("REST_API_ENABLED", true),
		OverrideSetting:   e.getString("REST_API_OVERRIDE_SETTING", ""),
		CommentModeration: e.getBool("COMMENT_MODERATION", false),
		Token: TokenConfig{
			Enabled: e.getBool("REST_API_TOKEN_ENABLED", false),
			Value:   e.getString("REST_API_TOKEN_VALUE", ""),
			Format:  e.getString("REST_API_TOKEN_FORMAT", TokenFormatBearer),
		},
		Restrict: RestrictionConfig{
			GET:     ParseList(e.getString("REST_API_LIMIT_GET", "attachments")),
			POST:    ParseList(e.getString("REST_API_LIMIT_POST", "comments")),
			OPTIONS: ParseList(e.getString("REST_API_LIMIT_OPTIONS", "")),
			FIELDS:  ParseList(e.getString("REST_API_LIMIT_FIELDS", "")),
		},
		Headers:        parseHeaders(e.getString("REST_API_HEADERS", "")),
		AdminPassword:  e.getString("ADMIN_PASSWORD", ""),
		EditorPassword: e.getString("EDITOR_PASSWORD", ""),
		SessionSecret:  e.getString("SESSION_SECRET", ""),
		CookieSecure:   e.getBool("COOKIE_SECURE", false),
		SiteSecret:     e.getString("SITE_SECRET", ""),
		AI: AIConfig{
			Endpoint: e.getString("AI_ENDPOINT", ""),
			APIKey:   e.getString("AI_API_KEY", ""),
			Model:    e.getString("AI_MODEL", ""),
			Prompt:   e.getString("AI_PROMPT", ""),
			Timeout:  e.getDuration("AI_TIMEOUT", 0),
		},
		SettingsCacheTTL:  e.getDuration("SETTINGS_CACHE_TTL", 0),
		SettingsCacheSize: e.getInt("SETTINGS_CACHE_SIZE", 0),
		RedisURL:          e.getString("REDIS_URL", ""),
		AMQPURL:           e.getString("AMQP_URL", ""),
	}
}

// parseHeaders reads "Name: value; Other: value".
func parseHeaders(s string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(part, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}

type envReader map[string]string

func (e envReader) getString(key, def string) string {
	if v, ok := e[key]; ok {
		return v
	}
	return def
}

func (e envReader) getBool(key string, def bool) bool {
	if v, ok := e[key]; ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		log.Printf("tyjson: invalid boolean for %s; using default %t", key, def)
	}
	return def
}

func (e envReader) getInt(key string, def int) int {
	if v, ok := e[key]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
		log.Printf("tyjson: invalid integer for %s; using default %d", key, def)
	}
	return def
}

func (e envReader) getDuration(key string, def time.Duration) time.Duration {
	if v, ok := e[key]; ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
		log.Printf("tyjson: invalid duration for %s; using default %s", key, def)
	}
	return def
}
