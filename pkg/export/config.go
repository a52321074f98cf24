package export

import (
	"github.com/dd0wney/cluso-policygraph/pkg/layout"
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/theme"
	"github.com/dd0wney/cluso-policygraph/pkg/validation"
)

// Defaults for ExportConfig.
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
	maxDimension  = 100000
)

// ExportConfig controls Export. The zero value is valid.
type ExportConfig struct {
	Theme          string          `yaml:"theme" json:"theme"`
	ThemeOverrides theme.Overrides `yaml:"themeOverrides" json:"themeOverrides"`
	Width          int             `yaml:"width" json:"width"`
	Height         int             `yaml:"height" json:"height"`
	ShowLegend     bool            `yaml:"showLegend" json:"showLegend"`
	ShowStats      bool            `yaml:"showStats" json:"showStats"`
	// Indent pretty-prints json output.
	Indent bool `yaml:"indent" json:"indent"`
	// Layout adds node positions; empty means none.
	Layout             string `yaml:"layout" json:"layout"`
	LayoutSeed         int64  `yaml:"layoutSeed" json:"layoutSeed"`
	IncludeDiagnostics bool   `yaml:"includeDiagnostics" json:"includeDiagnostics"`

	Logger  logging.Logger    `yaml:"-" json:"-"`
	Metrics *metrics.Registry `yaml:"-" json:"-"`
}

func (c ExportConfig) withDefaults() ExportConfig {
	c.Theme = validation.DefaultOr(c.Theme, theme.DefaultName)
	c.Width = validation.DefaultOrInt(c.Width, DefaultWidth)
	c.Height = validation.DefaultOrInt(c.Height, DefaultHeight)
	c.Logger = logging.OrNop(c.Logger)
	return c
}

// Validate checks dimensions and the layout name. Unknown theme names are
// not an error; they fall back at export time.
func (c ExportConfig) Validate() error {
	return validation.NewConfigValidator("ExportConfig").
		RangeInt("Width", c.Width, 0, maxDimension).
		RangeInt("Height", c.Height, 0, maxDimension).
		When(c.Layout != layout.None, func(cv *validation.ConfigValidator) {
			cv.OneOf("Layout", c.Layout, layout.Names)
		}).
		Validate()
}
