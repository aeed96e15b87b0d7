package tyjson

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// handleAdmin is the ttdf sub-router for theme settings. Every sub-endpoint
// requires an administrator session.
func (a *App) handleAdmin(c echo.Context, rc RequestContext, _ *Formatter) (Result, error) {
	type route struct {
		method string
		h      func(echo.Context) (Result, error)
	}
	routes := map[string][]route{
		"options":    {{http.MethodGet, a.adminOptions}, {http.MethodPost, a.adminSaveOptions}},
		"config":     {{http.MethodGet, a.adminConfig}},
		"form-data":  {{http.MethodGet, a.adminFormData}},
		"theme-info": {{http.MethodGet, a.adminThemeInfo}},
		"export":     {{http.MethodGet, a.adminExport}},
		"import":     {{http.MethodPost, a.adminImport}},
	}
	candidates, found := routes[rc.Segment(1)]
	if !found {
		return Result{}, errEndpointNotFound
	}
	if err := requireAdmin(c); err != nil {
		return Result{}, err
	}
	for _, r := range candidates {
		if r.method == rc.Method {
			return r.h(c)
		}
	}
	return Result{}, errMethodNotAllowed
}

func (a *App) adminOptions(c echo.Context) (Result, error) {
	all, err := a.Settings.All(c.Request().Context())
	if err != nil {
		return Result{}, err
	}
	return ok(all), nil
}

// adminSaveOptions stores a flat name/value payload. Lists are joined with
// commas; the form bookkeeping keys are skipped.
func (a *App) adminSaveOptions(c echo.Context) (Result, error) {
	body, err := readBody(c)
	if err != nil {
		return Result{}, err
	}
	if body == nil {
		return Result{}, errValidation("Invalid data format")
	}
	values := make(map[string]string, len(body))
	for name, value := range body {
		if name == "action" || name == "_" {
			continue
		}
		values[name] = stringValue(value)
	}
	if err := a.saveSettings(c, values); err != nil {
		return Result{}, err
	}
	return Result{
		Data: map[string]string{"message": "Saved"},
		Meta: map[string]any{"saved_count": len(values)},
	}, nil
}

func (a *App) adminConfig(c echo.Context) (Result, error) {
	return ok(map[string]any{
		"tabs":   a.Schema.Tabs,
		"fields": a.Schema.FieldMap(),
	}), nil
}

// adminFormData returns the value the settings form should show for every
// valued field.
func (a *App) adminFormData(c echo.Context) (Result, error) {
	ctx := c.Request().Context()
	out := make(map[string]any)
	for name, field := range a.Schema.FieldMap() {
		stored, found, err := a.Settings.Get(ctx, name)
		if err != nil {
			return Result{}, err
		}
		out[name] = field.Effective(stored, found)
	}
	return ok(out), nil
}

func (a *App) adminThemeInfo(c echo.Context) (Result, error) {
	return ok(map[string]string{
		"themeName":    a.Config.ThemeName,
		"themeVersion": a.Config.ThemeVersion,
		"ttdfVersion":  Version,
		"apiUrl":       strings.TrimRight(a.Config.SiteURL, "/") + a.Config.BasePath + "/" + adminEndpoint,
	}), nil
}

// SettingsExport is the document produced by /ttdf/export and accepted by
// /ttdf/import.
type SettingsExport struct {
	Version    string            `json:"version"`
	Theme      string            `json:"theme"`
	ExportTime string            `json:"exportTime"`
	Settings   map[string]string `json:"settings"`
}

func (a *App) adminExport(c echo.Context) (Result, error) {
	settings, err := a.Settings.ThemeSettings(c.Request().Context())
	if err != nil {
		return Result{}, err
	}
	return ok(SettingsExport{
		Version:    a.Config.ThemeVersion,
		Theme:      a.Config.ThemeName,
		ExportTime: a.now().In(a.loc).Format(time.RFC3339),
		Settings:   settings,
	}), nil
}

// adminImport writes every entry of an export document's settings map.
func (a *App) adminImport(c echo.Context) (Result, error) {
	body, err := readBody(c)
	if err != nil {
		return Result{}, err
	}
	settings, isMap := body["settings"].(map[string]any)
	if body == nil || !isMap {
		return Result{}, errValidation("Invalid import data")
	}
	values := make(map[string]string, len(settings))
	for name, value := range settings {
		if name == "" {
			continue
		}
		values[name] = stringValue(value)
	}
	if err := a.saveSettings(c, values); err != nil {
		return Result{}, err
	}
	return Result{
		Data: map[string]string{"message": "Imported"},
		Meta: map[string]any{"imported_count": len(values)},
	}, nil
}

// saveSettings writes values all at once, or none of them when a name is
// invalid.
func (a *App) saveSettings(c echo.Context, values map[string]string) error {
	err := a.Settings.SetAll(c.Request().Context(), values)
	var nameErr *InvalidNameError
	if errors.As(err, &nameErr) {
		return errValidation("Invalid setting name: " + nameErr.Name)
	}
	return err
}
