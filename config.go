package tyjson

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Token formats accepted in the Authorization header.
const (
	TokenFormatBearer = "Bearer"
	TokenFormatToken  = "Token"
)

// TokenConfig enables a shared-secret check on every API request.
type TokenConfig struct {
	Enabled bool
	Value   string
	Format  string // TokenFormatBearer (default) or TokenFormatToken
}

// RestrictionConfig lists what the API refuses to serve. GET and POST hold
// endpoint names per method; OPTIONS holds site option names; FIELDS holds
// custom field names.
type RestrictionConfig struct {
	GET     []string
	POST    []string
	OPTIONS []string
	FIELDS  []string
}

// ParseList splits a comma-separated list, dropping blanks.
func ParseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// EndpointRestricted reports whether endpoint is denied for method.
func (r RestrictionConfig) EndpointRestricted(method, endpoint string) bool {
	switch method {
	case "GET":
		return contains(r.GET, endpoint)
	case "POST":
		return contains(r.POST, endpoint)
	}
	return false
}

// OptionRestricted reports whether a site option is hidden.
func (r RestrictionConfig) OptionRestricted(name string) bool {
	return contains(r.OPTIONS, name)
}

// FieldRestricted reports whether a custom field may not be searched.
func (r RestrictionConfig) FieldRestricted(name string) bool {
	return contains(r.FIELDS, name)
}

// AIConfig configures the OpenAI-compatible summary provider.
type AIConfig struct {
	Endpoint string // chat completions URL (default OpenAI's)
	APIKey   string
	Model    string        // default "gpt-3.5-turbo"
	Prompt   string        // ${title} and ${content} are substituted
	Timeout  time.Duration // default 30s
	MaxChars int           // content cap sent upstream, default 3000
}

// Config holds all configuration for the API server.
type Config struct {
	Addr         string // Listen address (default ":8080")
	BasePath     string // Route prefix (default "/ty-json")
	DatabasePath string // SQLite path (default "data/tyjson.db")
	SiteURL      string // Public site URL used in theme-info (default "http://localhost:8080")

	ThemeName    string // Theme setting prefix (default "TTDF")
	ThemeVersion string // Reported by index and export (default "1.0.0")
	Timezone     string // IANA zone for formatted dates (default "UTC")

	Debug bool // Adds error_details to error envelopes and pretty-prints JSON

	// Disabled turns the API off except for the ttdf admin endpoint. A
	// stored theme setting named OverrideSetting ("true"/"false") wins over it.
	Disabled        bool
	OverrideSetting string // default "RESTAPI_Switch"

	Token    TokenConfig
	Restrict RestrictionConfig
	Headers  map[string]string // Extra response headers

	CommentModeration bool // New comments start as "waiting"

	AdminPassword  string // Required: administrator login password
	EditorPassword string // Optional: editor login, allowed to request AI summaries
	SessionSecret  string // Required: session encryption secret
	CookieSecure   bool   // Set true for HTTPS
	SiteSecret     string // Signs server-to-server AI summary requests

	AI AIConfig

	SettingsCacheTTL  time.Duration // default 5min
	SettingsCacheSize int           // default 100
	RedisURL          string        // Optional shared settings cache
	AMQPURL           string        // Optional comment event exchange
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.BasePath == "" {
		c.BasePath = "/ty-json"
	}
	c.BasePath = "/" + strings.Trim(c.BasePath, "/")
	if c.DatabasePath == "" {
		c.DatabasePath = "data/tyjson.db"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:8080"
	}
	if c.ThemeName == "" {
		c.ThemeName = "TTDF"
	}
	if c.ThemeVersion == "" {
		c.ThemeVersion = "1.0.0"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.OverrideSetting == "" {
		c.OverrideSetting = "RESTAPI_Switch"
	}
	if c.Token.Format == "" {
		c.Token.Format = TokenFormatBearer
	}
	if c.AI.Endpoint == "" {
		c.AI.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-3.5-turbo"
	}
	if c.AI.Prompt == "" {
		c.AI.Prompt = defaultSummaryPrompt
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 30 * time.Second
	}
	if c.AI.MaxChars == 0 {
		c.AI.MaxChars = 3000
	}
	if c.SettingsCacheTTL == 0 {
		c.SettingsCacheTTL = 5 * time.Minute
	}
	if c.SettingsCacheSize == 0 {
		c.SettingsCacheSize = 100
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore replaces the SQLite store opened from DatabasePath.
func WithStore(s ContentStore) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithSettingsCache replaces the in-memory settings cache.
func WithSettingsCache(c SettingsCache) Option {
	return func(a *App) {
		a.settingsCache = c
	}
}

// WithSummarizer replaces the HTTP summary client built from Config.AI.
func WithSummarizer(s Summarizer) Option {
	return func(a *App) {
		a.Summarizer = s
	}
}

// WithCommentPublisher receives an event for every stored comment.
func WithCommentPublisher(p CommentPublisher) Option {
	return func(a *App) {
		a.Events = p
	}
}

// WithThemeSchema replaces the bundled theme field schema.
func WithThemeSchema(s *ThemeSchema) Option {
	return func(a *App) {
		a.Schema = s
	}
}

// WithInterceptors appends middleware run on every API request after the
// token gate and before dispatch, in the order given.
func WithInterceptors(mw ...echo.MiddlewareFunc) Option {
	return func(a *App) {
		a.interceptors = append(a.interceptors, mw...)
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the API routes are mounted.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithClock overrides the time source used for signed request checks.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}
