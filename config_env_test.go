package tyjson

import (
	"reflect"
	"sort"
	"testing"
	"time"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg := configFromEnv(map[string]string{})
	cfg.setDefaults()

	if cfg.BasePath != "/ty-json" || cfg.Addr != ":8080" || cfg.ThemeName != "TTDF" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Disabled {
		t.Errorf("API should be enabled by default")
	}
	if !reflect.DeepEqual(cfg.Restrict.GET, []string{"attachments"}) {
		t.Errorf("default GET restriction = %v", cfg.Restrict.GET)
	}
	if !reflect.DeepEqual(cfg.Restrict.POST, []string{"comments"}) {
		t.Errorf("default POST restriction = %v", cfg.Restrict.POST)
	}
	if cfg.Token.Format != TokenFormatBearer || cfg.Token.Enabled {
		t.Errorf("unexpected token defaults: %+v", cfg.Token)
	}
	if cfg.AI.Timeout != 30*time.Second || cfg.AI.MaxChars != 3000 {
		t.Errorf("unexpected AI defaults: %+v", cfg.AI)
	}
}

func TestConfigFromEnvValues(t *testing.T) {
	cfg := configFromEnv(map[string]string{
		"BASE_PATH":              "api/",
		"DEBUG":                  "true",
		"REST_API_ENABLED":       "false",
		"REST_API_TOKEN_ENABLED": "1",
		"REST_API_TOKEN_VALUE":   "s3cret",
		"REST_API_TOKEN_FORMAT":  "Token",
		"REST_API_LIMIT_GET":     "",
		"REST_API_LIMIT_FIELDS":  "password, secret ,",
		"REST_API_HEADERS":       "X-Powered-By: TTDF; X-Empty:",
		"SETTINGS_CACHE_TTL":     "90s",
		"SETTINGS_CACHE_SIZE":    "not-a-number",
	})
	cfg.setDefaults()

	if cfg.BasePath != "/api" {
		t.Errorf("BasePath = %q, want /api", cfg.BasePath)
	}
	if !cfg.Debug || !cfg.Disabled {
		t.Errorf("expected debug on and API disabled")
	}
	if !cfg.Token.Enabled || cfg.Token.Value != "s3cret" || cfg.Token.Format != TokenFormatToken {
		t.Errorf("unexpected token config: %+v", cfg.Token)
	}
	if len(cfg.Restrict.GET) != 0 {
		t.Errorf("explicit empty GET restriction should clear the default, got %v", cfg.Restrict.GET)
	}
	if !reflect.DeepEqual(cfg.Restrict.FIELDS, []string{"password", "secret"}) {
		t.Errorf("FIELDS = %v", cfg.Restrict.FIELDS)
	}
	if cfg.Headers["X-Powered-By"] != "TTDF" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if v, ok := cfg.Headers["X-Empty"]; !ok || v != "" {
		t.Errorf("expected empty header kept, got %v", cfg.Headers)
	}
	if cfg.SettingsCacheTTL != 90*time.Second {
		t.Errorf("SettingsCacheTTL = %s", cfg.SettingsCacheTTL)
	}
	if cfg.SettingsCacheSize != 100 {
		t.Errorf("invalid integer should fall back to the default, got %d", cfg.SettingsCacheSize)
	}
}

func TestMigrateLegacyEnv(t *testing.T) {
	env := map[string]string{
		"TTDF_DEBUG":     "true",
		"REST_API_ROUTE": "old",
		"BASE_PATH":      "new",
		"RABBITMQ_URL":   "amqp://localhost",
	}
	moved := migrateLegacyEnv(env)
	sort.Strings(moved)

	want := []string{"RABBITMQ_URL", "REST_API_ROUTE", "TTDF_DEBUG"}
	if !reflect.DeepEqual(moved, want) {
		t.Errorf("moved = %v, want %v", moved, want)
	}
	if env["DEBUG"] != "true" || env["AMQP_URL"] != "amqp://localhost" {
		t.Errorf("legacy values not carried over: %v", env)
	}
	if env["BASE_PATH"] != "new" {
		t.Errorf("current key must win over its legacy alias, got %q", env["BASE_PATH"])
	}
	if _, ok := env["TTDF_DEBUG"]; ok {
		t.Errorf("legacy key should be removed")
	}
}

func TestRestrictionConfig(t *testing.T) {
	r := RestrictionConfig{
		GET:     []string{"attachments"},
		POST:    []string{"comments"},
		OPTIONS: []string{"plugins"},
		FIELDS:  []string{"secret"},
	}
	if !r.EndpointRestricted("GET", "attachments") || r.EndpointRestricted("POST", "attachments") {
		t.Errorf("GET restriction misapplied")
	}
	if !r.EndpointRestricted("POST", "comments") || r.EndpointRestricted("GET", "comments") {
		t.Errorf("POST restriction misapplied")
	}
	if r.EndpointRestricted("OPTIONS", "comments") {
		t.Errorf("OPTIONS requests are never endpoint-restricted")
	}
	if !r.OptionRestricted("plugins") || r.OptionRestricted("title") {
		t.Errorf("option restriction misapplied")
	}
	if !r.FieldRestricted("secret") || r.FieldRestricted("color") {
		t.Errorf("field restriction misapplied")
	}
}
