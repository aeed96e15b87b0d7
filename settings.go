package tyjson

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidSettingName is returned for names outside [A-Za-z0-9_]{1,100}.
var ErrInvalidSettingName = errors.New("tyjson: invalid setting name")

// Settings reads and writes theme settings. Names are stored prefixed with
// the theme name so several themes can share one table; reads fall back to
// the unprefixed name.
type Settings struct {
	store SettingsStore
	cache SettingsCache
	theme string
}

// NewSettings creates a Settings for the named theme.
func NewSettings(store SettingsStore, cache SettingsCache, theme string) *Settings {
	return &Settings{store: store, cache: cache, theme: theme}
}

// Theme returns the theme name used as key prefix.
func (s *Settings) Theme() string { return s.theme }

func (s *Settings) prefix() string {
	if s.theme == "" || !settingNamePattern.MatchString(s.theme) {
		return ""
	}
	return s.theme + "_"
}

func (s *Settings) fullName(name string) (string, error) {
	if !settingNamePattern.MatchString(name) {
		return "", ErrInvalidSettingName
	}
	return s.prefix() + name, nil
}

// Get returns a setting and whether it is stored.
func (s *Settings) Get(ctx context.Context, name string) (string, bool, error) {
	full, err := s.fullName(name)
	if err != nil {
		return "", false, err
	}
	if v, ok := s.cache.Get(ctx, full); ok {
		return v, true, nil
	}
	v, err := s.store.GetSetting(ctx, full)
	if errors.Is(err, ErrNotFound) && full != name {
		v, err = s.store.GetSetting(ctx, name)
	}
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	s.cache.Set(ctx, full, v)
	return v, true, nil
}

// Set stores a setting under the theme prefix.
func (s *Settings) Set(ctx context.Context, name, value string) error {
	full, err := s.fullName(name)
	if err != nil {
		return err
	}
	if err := s.store.SetSetting(ctx, full, value); err != nil {
		return err
	}
	s.cache.Delete(ctx, full)
	return nil
}

// InvalidNameError reports the first setting name SetAll rejected.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return "tyjson: invalid setting name " + strconv.Quote(e.Name)
}

func (e *InvalidNameError) Unwrap() error { return ErrInvalidSettingName }

// SetAll stores every value after checking all names, so a bad name leaves
// the stored settings untouched.
func (s *Settings) SetAll(ctx context.Context, values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !settingNamePattern.MatchString(name) {
			return &InvalidNameError{Name: name}
		}
	}
	for _, name := range names {
		if err := s.Set(ctx, name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// All returns every stored setting under its full name.
func (s *Settings) All(ctx context.Context) (map[string]string, error) {
	return s.store.ListSettings(ctx, "")
}

// ThemeSettings returns the current theme's settings with the prefix
// removed.
func (s *Settings) ThemeSettings(ctx context.Context) (map[string]string, error) {
	prefix := s.prefix()
	all, err := s.store.ListSettings(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		return all, nil
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		out[strings.TrimPrefix(k, prefix)] = v
	}
	return out, nil
}
