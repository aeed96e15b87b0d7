package tyjson

import (
	"context"
	"errors"
	"testing"
	"time"
)

func setupTestSettings(t *testing.T, theme string) (*Settings, *SQLiteStore) {
	t.Helper()
	s := setupTestStore(t)
	return NewSettings(s, NewMemoryCache(time.Minute, 100), theme), s
}

func TestSettingsPrefixesTheme(t *testing.T) {
	settings, store := setupTestSettings(t, "Mytheme")
	ctx := context.Background()

	if err := settings.Set(ctx, "color", "red"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, err := store.GetSetting(ctx, "Mytheme_color"); err != nil || v != "red" {
		t.Fatalf("expected prefixed row, got %q, %v", v, err)
	}
	v, found, err := settings.Get(ctx, "color")
	if err != nil || !found || v != "red" {
		t.Errorf("Get = %q, %t, %v", v, found, err)
	}
}

func TestSettingsFallsBackToUnprefixed(t *testing.T) {
	settings, store := setupTestSettings(t, "Mytheme")
	ctx := context.Background()

	if err := store.SetSetting(ctx, "legacy", "1"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	v, found, err := settings.Get(ctx, "legacy")
	if err != nil || !found || v != "1" {
		t.Errorf("Get(legacy) = %q, %t, %v", v, found, err)
	}
	if _, found, _ := settings.Get(ctx, "absent"); found {
		t.Errorf("expected absent setting not found")
	}
}

func TestSettingsSetInvalidatesCache(t *testing.T) {
	settings, _ := setupTestSettings(t, "T")
	ctx := context.Background()

	settings.Set(ctx, "size", "1")
	if v, _, _ := settings.Get(ctx, "size"); v != "1" {
		t.Fatalf("expected 1, got %q", v)
	}
	settings.Set(ctx, "size", "2")
	if v, _, _ := settings.Get(ctx, "size"); v != "2" {
		t.Errorf("expected cached value replaced after Set, got %q", v)
	}
}

func TestSettingsRejectsInvalidNames(t *testing.T) {
	settings, _ := setupTestSettings(t, "T")
	ctx := context.Background()
	for _, name := range []string{"", "has space", "semi;colon", "dash-name"} {
		if err := settings.Set(ctx, name, "x"); !errors.Is(err, ErrInvalidSettingName) {
			t.Errorf("Set(%q) error = %v, want ErrInvalidSettingName", name, err)
		}
	}
}

func TestSettingsSetAllIsAllOrNothing(t *testing.T) {
	settings, store := setupTestSettings(t, "T")
	ctx := context.Background()

	err := settings.SetAll(ctx, map[string]string{"good": "1", "bad name": "2"})
	var nameErr *InvalidNameError
	if !errors.As(err, &nameErr) || nameErr.Name != "bad name" || !errors.Is(err, ErrInvalidSettingName) {
		t.Fatalf("SetAll error = %v", err)
	}
	if all, _ := store.ListSettings(ctx, ""); len(all) != 0 {
		t.Errorf("expected nothing stored, got %v", all)
	}

	if err := settings.SetAll(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("SetAll failed: %v", err)
	}
	if v, found, _ := settings.Get(ctx, "b"); !found || v != "2" {
		t.Errorf("Get(b) = %q, %t", v, found)
	}
}

func TestThemeSettingsStripsPrefix(t *testing.T) {
	settings, store := setupTestSettings(t, "T")
	ctx := context.Background()
	settings.Set(ctx, "a", "1")
	settings.Set(ctx, "b", "2")
	store.SetSetting(ctx, "Other_a", "3")

	got, err := settings.ThemeSettings(ctx)
	if err != nil {
		t.Fatalf("ThemeSettings failed: %v", err)
	}
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Errorf("ThemeSettings = %v", got)
	}
	all, err := settings.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("All returned %d settings, want 3", len(all))
	}
}
