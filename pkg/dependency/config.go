package dependency

import (
	"errors"

	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
	"github.com/dd0wney/cluso-policygraph/pkg/validation"
)

// ErrInvalidConfig wraps LayoutConfig validation failures.
var ErrInvalidConfig = errors.New("invalid layout config")

// Defaults for LayoutConfig.
const (
	DefaultBaseSize   = 30
	DefaultSizeFactor = 4
	maxSize           = 10000
)

// LayoutConfig controls node sizing and which labels and annotations the
// builder reads. The zero value is valid.
type LayoutConfig struct {
	BaseSize   int `yaml:"baseSize" json:"baseSize"`
	SizeFactor int `yaml:"sizeFactor" json:"sizeFactor"`
	// HighlightCycles only marks cycles for exporters. Detection always runs.
	HighlightCycles bool `yaml:"highlightCycles" json:"highlightCycles"`
	// SameNamespaceOverlap limits selector-overlap edges to policies in the
	// same namespace.
	SameNamespaceOverlap bool   `yaml:"sameNamespaceOverlap" json:"sameNamespaceOverlap"`
	SeverityLabel        string `yaml:"severityLabel" json:"severityLabel" validate:"omitempty,labelkey"`
	StatusLabel          string `yaml:"statusLabel" json:"statusLabel" validate:"omitempty,labelkey"`
	DependsOnAnnotation  string `yaml:"dependsOnAnnotation" json:"dependsOnAnnotation" validate:"omitempty,labelkey"`

	Logger  logging.Logger    `yaml:"-" json:"-"`
	Metrics *metrics.Registry `yaml:"-" json:"-"`
}

func (c LayoutConfig) withDefaults() LayoutConfig {
	c.BaseSize = validation.DefaultOrInt(c.BaseSize, DefaultBaseSize)
	c.SizeFactor = validation.DefaultOrInt(c.SizeFactor, DefaultSizeFactor)
	c.SeverityLabel = validation.DefaultOr(c.SeverityLabel, policy.LabelSeverity)
	c.StatusLabel = validation.DefaultOr(c.StatusLabel, policy.LabelStatus)
	c.DependsOnAnnotation = validation.DefaultOr(c.DependsOnAnnotation, policy.AnnotationDependsOn)
	c.Logger = logging.OrNop(c.Logger)
	return c
}

// Validate checks explicitly set values. Unset values are always valid.
func (c LayoutConfig) Validate() error {
	return validation.NewConfigValidator("LayoutConfig").
		RangeInt("BaseSize", c.BaseSize, 0, maxSize).
		RangeInt("SizeFactor", c.SizeFactor, 0, maxSize).
		Custom("labels", func() error {
			if fe := validation.NewStructValidator().Check(c); fe != nil {
				return fe
			}
			return nil
		}).
		Validate()
}
