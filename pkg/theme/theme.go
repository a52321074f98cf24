// Package theme holds the built-in color and style tables attached to
// exports. Themes are data only; nothing here renders.
package theme

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-policygraph/pkg/logging"
)

// DefaultName is the theme used for unknown names.
const DefaultName = "default"

//go:embed themes.yaml
var builtinYAML []byte

// Theme is a named color and style table. Values returned by ResolveTheme
// are copies; mutating them does not affect the built-in table.
type Theme struct {
	Name   string            `json:"name" yaml:"name"`
	Colors map[string]string `json:"colors" yaml:"colors"`
	Styles map[string]string `json:"styles" yaml:"styles"`
	// Requested is the name the caller asked for. It differs from Name
	// when the lookup fell back to the default theme.
	Requested string `json:"-" yaml:"-"`
}

// FellBack reports whether the requested name was unknown.
func (t Theme) FellBack() bool {
	return t.Requested != "" && t.Requested != t.Name
}

// Overrides are shallow-merged onto a base theme. Keys absent from the base
// are added.
type Overrides struct {
	Colors map[string]string `json:"colors,omitempty" yaml:"colors,omitempty"`
	Styles map[string]string `json:"styles,omitempty" yaml:"styles,omitempty"`
}

// IsEmpty reports whether o changes nothing.
func (o Overrides) IsEmpty() bool {
	return len(o.Colors) == 0 && len(o.Styles) == 0
}

var builtin = sync.OnceValues(func() (map[string]Theme, error) {
	return parse(builtinYAML)
})

func parse(data []byte) (map[string]Theme, error) {
	var raw map[string]Theme
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("theme: parse table: %w", err)
	}
	if _, ok := raw[DefaultName]; !ok {
		return nil, fmt.Errorf("theme: table has no %q theme", DefaultName)
	}
	for name, t := range raw {
		t.Name = name
		raw[name] = t
	}
	return raw, nil
}

func table() map[string]Theme {
	themes, err := builtin()
	if err != nil {
		// The table is compiled in; a parse failure is a build defect.
		panic(err)
	}
	return themes
}

// Names returns the built-in theme names, sorted.
func Names() []string {
	names := maps.Keys(table())
	slices.Sort(names)
	return names
}

// Lookup returns a copy of the named built-in theme.
func Lookup(name string) (Theme, bool) {
	t, ok := table()[name]
	if !ok {
		return Theme{}, false
	}
	return t.clone(), true
}

// ResolveTheme returns the named theme with overrides merged onto it. An
// unknown or empty name falls back to the default theme; a non-empty
// unknown name is logged as a warning and the result's FellBack reports
// true. It never fails.
func ResolveTheme(name string, overrides Overrides, logger logging.Logger) Theme {
	t, ok := Lookup(name)
	if !ok {
		if name != "" {
			logging.OrNop(logger).Warn("unknown theme, using default",
				logging.Component("theme"), logging.String("theme", name), logging.String("fallback", DefaultName))
		}
		t, _ = Lookup(DefaultName)
	}
	if name != "" {
		t.Requested = name
	}
	maps.Copy(t.Colors, overrides.Colors)
	maps.Copy(t.Styles, overrides.Styles)
	return t
}

func (t Theme) clone() Theme {
	t.Colors = maps.Clone(t.Colors)
	t.Styles = maps.Clone(t.Styles)
	if t.Colors == nil {
		t.Colors = map[string]string{}
	}
	if t.Styles == nil {
		t.Styles = map[string]string{}
	}
	return t
}

// Color returns the color for key, or the link color when the theme does
// not define one.
func (t Theme) Color(key string) string {
	if c, ok := t.Colors[key]; ok {
		return c
	}
	return t.Colors["link"]
}
