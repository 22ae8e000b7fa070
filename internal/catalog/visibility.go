package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Visibility is the console filter from config.json. The zero value shows
// every console.
type Visibility struct {
	allow  map[string]bool // allow-list form
	toggle map[string]bool // name -> enabled form
}

// ShowAll is the permissive policy used when config.json is missing.
func ShowAll() Visibility { return Visibility{} }

// AllowList shows only the named consoles. An empty list shows everything.
func AllowList(names ...string) Visibility {
	allow := map[string]bool{}
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			allow[n] = true
		}
	}
	if len(allow) == 0 {
		return ShowAll()
	}
	return Visibility{allow: allow}
}

// Toggles hides consoles explicitly set to false; others stay visible.
func Toggles(flags map[string]bool) Visibility {
	toggle := map[string]bool{}
	for name, on := range flags {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			toggle[name] = on
		}
	}
	if len(toggle) == 0 {
		return ShowAll()
	}
	return Visibility{toggle: toggle}
}

// Visible reports whether entries of console should be kept.
func (v Visibility) Visible(console string) bool {
	key := strings.ToLower(strings.TrimSpace(console))
	if v.allow != nil {
		return v.allow[key]
	}
	if v.toggle != nil {
		on, ok := v.toggle[key]
		return !ok || on
	}
	return true
}

func (v Visibility) Restricted() bool { return v.allow != nil || v.toggle != nil }

// ParseVisibility reads the console policy out of a config.json document.
// "visibleConsoles" may be an array of names or an object of name -> bool;
// a top-level "consoles" object is accepted as the object form.
func ParseVisibility(doc []byte) (Visibility, error) {
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(doc)); err != nil {
		return ShowAll(), fmt.Errorf("parse config: %w", err)
	}

	raw := v.Get("visibleConsoles")
	if raw == nil {
		raw = v.Get("consoles")
	}
	switch val := raw.(type) {
	case nil:
		return ShowAll(), nil
	case []interface{}:
		names, err := cast.ToStringSliceE(val)
		if err != nil {
			return ShowAll(), fmt.Errorf("visibleConsoles: %w", err)
		}
		return AllowList(names...), nil
	case map[string]interface{}:
		flags, err := cast.ToStringMapBoolE(val)
		if err != nil {
			return ShowAll(), fmt.Errorf("visibleConsoles: %w", err)
		}
		return Toggles(flags), nil
	default:
		return ShowAll(), fmt.Errorf("visibleConsoles: unsupported type %T", raw)
	}
}
