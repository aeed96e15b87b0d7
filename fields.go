package tyjson

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FieldType is the closed set of theme setting widgets.
type FieldType int

const (
	FieldText FieldType = iota
	FieldTextarea
	FieldColorPicker
	FieldRadio
	FieldSelect
	FieldCheckbox
	FieldTags
	FieldAddList
	FieldDialogSelect
	FieldSwitch
	FieldNumber
	FieldSlider
	FieldHTML
)

var fieldTypeNames = map[FieldType]string{
	FieldText:         "Text",
	FieldTextarea:     "Textarea",
	FieldColorPicker:  "ColorPicker",
	FieldRadio:        "Radio",
	FieldSelect:       "Select",
	FieldCheckbox:     "Checkbox",
	FieldTags:         "Tags",
	FieldAddList:      "AddList",
	FieldDialogSelect: "DialogSelect",
	FieldSwitch:       "Switch",
	FieldNumber:       "Number",
	FieldSlider:       "Slider",
	FieldHTML:         "Html",
}

func (t FieldType) String() string {
	if n, ok := fieldTypeNames[t]; ok {
		return n
	}
	return "FieldType(" + strconv.Itoa(int(t)) + ")"
}

func (t FieldType) MarshalText() ([]byte, error) {
	n, ok := fieldTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("tyjson: unknown field type %d", int(t))
	}
	return []byte(n), nil
}

func (t *FieldType) UnmarshalText(b []byte) error {
	for k, n := range fieldTypeNames {
		if n == string(b) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("tyjson: unknown field type %q", string(b))
}

// fieldKind pairs the comparison and output rules of a field type.
type fieldKind struct {
	// normalize reduces a stored or default value to a comparable key.
	normalize func(v any) string
	// coerce shapes the effective value for the form-data response.
	coerce func(f Field, v any) any
}

var (
	plainKind = fieldKind{
		normalize: stringValue,
		coerce:    func(_ Field, v any) any { return v },
	}
	listKind = fieldKind{
		normalize: normalizeList,
		coerce: func(_ Field, v any) any {
			return listValue(v)
		},
	}
	// DialogSelect compares like a list but is returned as stored.
	dialogKind = fieldKind{
		normalize: normalizeList,
		coerce:    func(_ Field, v any) any { return v },
	}
	switchKind = fieldKind{
		normalize: func(v any) string { return strconv.FormatBool(truthy(v)) },
		coerce:    func(_ Field, v any) any { return truthy(v) },
	}
	numberKind = fieldKind{
		normalize: func(v any) string {
			f, _ := floatValue(v)
			return strconv.FormatFloat(f, 'g', -1, 64)
		},
		coerce: func(f Field, v any) any {
			if n, ok := floatValue(v); ok {
				return n
			}
			n, _ := floatValue(f.Value)
			return n
		},
	}
)

func (t FieldType) kind() fieldKind {
	switch t {
	case FieldCheckbox, FieldTags, FieldAddList:
		return listKind
	case FieldDialogSelect:
		return dialogKind
	case FieldSwitch:
		return switchKind
	case FieldNumber, FieldSlider:
		return numberKind
	case FieldText, FieldTextarea, FieldColorPicker, FieldRadio, FieldSelect, FieldHTML:
		return plainKind
	}
	return plainKind
}

// Field is one theme setting definition.
type Field struct {
	Type        FieldType       `json:"type"`
	Name        string          `json:"name,omitempty"`
	Value       any             `json:"value,omitempty"`
	Label       string          `json:"label,omitempty"`
	Description string          `json:"description,omitempty"`
	Layout      string          `json:"layout,omitempty"`
	Options     json.RawMessage `json:"options,omitempty"`
	Content     string          `json:"content,omitempty"`
	Min         *float64        `json:"min,omitempty"`
	Max         *float64        `json:"max,omitempty"`
	Step        *float64        `json:"step,omitempty"`
}

// HasValue reports whether the field holds a setting; Html fields are
// decoration only.
func (f Field) HasValue() bool {
	return f.Type != FieldHTML && f.Name != ""
}

// Effective returns the value the admin form should show: the stored
// override when it differs from the default after normalization, else the
// default, shaped for the field type.
func (f Field) Effective(stored string, found bool) any {
	k := f.Type.kind()
	var v any = f.Value
	if v == nil {
		v = ""
	}
	if found && k.normalize(stored) != k.normalize(f.Value) {
		v = stored
	}
	return k.coerce(f, v)
}

// Tab groups fields in the admin UI.
type Tab struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// ThemeSchema is the full field-definition set of a theme.
type ThemeSchema struct {
	Tabs []Tab `json:"tabs"`
}

var settingNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,100}$`)

// LoadThemeSchema decodes and validates a JSON theme schema.
func LoadThemeSchema(r io.Reader) (*ThemeSchema, error) {
	var s ThemeSchema
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("tyjson: decode theme schema: %w", err)
	}
	seen := make(map[string]bool)
	for _, tab := range s.Tabs {
		for _, f := range tab.Fields {
			err := validation.ValidateStruct(&f,
				validation.Field(&f.Name, validation.When(f.Type != FieldHTML,
					validation.Required, validation.Match(settingNamePattern))),
			)
			if err != nil {
				return nil, fmt.Errorf("tyjson: theme schema tab %q: %w", tab.ID, err)
			}
			if f.HasValue() {
				if seen[f.Name] {
					return nil, fmt.Errorf("tyjson: theme schema: duplicate field %q", f.Name)
				}
				seen[f.Name] = true
			}
		}
	}
	return &s, nil
}

// DefaultThemeSchema returns the schema bundled with the module.
func DefaultThemeSchema() *ThemeSchema {
	f, err := embeddedFiles.Open("embedded/theme.json")
	if err != nil {
		panic(err)
	}
	defer f.Close()
	s, err := LoadThemeSchema(f)
	if err != nil {
		panic(err)
	}
	return s
}

// FieldMap indexes the valued fields by name.
func (s *ThemeSchema) FieldMap() map[string]Field {
	out := make(map[string]Field)
	for _, tab := range s.Tabs {
		for _, f := range tab.Fields {
			if f.HasValue() {
				out[f.Name] = f
			}
		}
	}
	return out
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case []string:
		return strings.Join(t, ",")
	case []any:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i] = stringValue(p)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

func normalizeList(v any) string {
	s := stringValue(v)
	if s == "" {
		return ""
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func listValue(v any) []string {
	switch t := v.(type) {
	case []any, []string:
		s := stringValue(t)
		if s == "" {
			return []string{}
		}
		return strings.Split(s, ",")
	case string:
		if t == "" {
			return []string{}
		}
		return strings.Split(t, ",")
	}
	return []string{}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	case float64:
		return t == 1
	}
	return false
}

func floatValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}
