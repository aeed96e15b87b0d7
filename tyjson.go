// Package tyjson is the REST API core of the TTDF theme framework: a JSON
// API over a blog's posts, pages, terms, comments and attachments, plus the
// admin endpoints for theme settings, served with Echo.
//
// Content is read through the ContentStore interface; NewSQLiteStore
// provides the default implementation.
package tyjson

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Version is the framework version reported by the index and theme-info
// endpoints.
const Version = "3.0.0"

// App is the central tyjson application. It wires together the store,
// settings, collaborators, middleware and the API routes.
type App struct {
	Config     Config
	Echo       *echo.Echo
	Store      ContentStore
	Settings   *Settings
	Schema     *ThemeSchema
	Summarizer Summarizer
	Events     CommentPublisher

	settingsCache  SettingsCache
	loginLimiter   *RateLimiter
	commentLimiter *RateLimiter
	endpoints      map[string]handlerFunc
	interceptors   []echo.MiddlewareFunc
	customRoutes   []func(*App)
	closers        []func() error
	now            func() time.Time
	loc            *time.Location
}

// New creates an App with the given configuration. Call Setup before
// serving requests, or Start to do both.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		now:    time.Now,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the store and optional backends, then installs middleware and
// routes. Call it once.
func (a *App) Setup() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("tyjson: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("tyjson: SessionSecret is required")
	}

	loc, err := time.LoadLocation(a.Config.Timezone)
	if err != nil {
		log.Printf("tyjson: unknown timezone %q, using UTC", a.Config.Timezone)
		loc = time.UTC
	}
	a.loc = loc

	if a.Store == nil {
		store, err := NewSQLiteStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("tyjson: init store: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	}

	if a.settingsCache == nil {
		if a.Config.RedisURL != "" {
			rc, err := NewRedisCache(context.Background(), a.Config.RedisURL, a.Config.SettingsCacheTTL)
			if err != nil {
				return fmt.Errorf("tyjson: init settings cache: %w", err)
			}
			a.settingsCache = rc
			a.closers = append(a.closers, rc.Close)
		} else {
			a.settingsCache = NewMemoryCache(a.Config.SettingsCacheTTL, a.Config.SettingsCacheSize)
		}
	}
	a.Settings = NewSettings(a.Store, a.settingsCache, a.Config.ThemeName)

	if a.Schema == nil {
		a.Schema = DefaultThemeSchema()
	}
	if a.Summarizer == nil {
		a.Summarizer = NewSummaryClient(a.Config.AI)
	}
	if a.Events == nil {
		if a.Config.AMQPURL != "" {
			p, err := NewAMQPPublisher(a.Config.AMQPURL)
			if err != nil {
				return fmt.Errorf("tyjson: init comment events: %w", err)
			}
			a.Events = p
			a.closers = append(a.closers, p.Close)
		} else {
			a.Events = noopPublisher{}
		}
	}

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.commentLimiter = NewRateLimiter(10, time.Minute)
	a.endpoints = a.endpointTable()

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the app up and serves until the server is closed.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.POST("/admin/login", a.handleLogin)
	e.POST("/admin/logout", a.handleLogout)

	prefix := a.Config.BasePath
	if prefix == "/" {
		prefix = ""
	}
	mw := append([]echo.MiddlewareFunc{a.tokenGate, a.enabledGate}, a.interceptors...)
	g := e.Group(prefix, mw...)
	g.Any("", a.serveAPI)
	g.Any("/*", a.serveAPI)
}

// Close releases the store and optional backends opened by Setup.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.commentLimiter != nil {
		a.commentLimiter.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
