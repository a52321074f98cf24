package interaction

import (
	"errors"

	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
	"github.com/dd0wney/cluso-policygraph/pkg/policy"
	"github.com/dd0wney/cluso-policygraph/pkg/validation"
)

// ErrInvalidConfig wraps InteractionConfig validation failures.
var ErrInvalidConfig = errors.New("invalid interaction config")

// DefaultConflictThreshold requires at least half of one policy's selector
// keys to match the other before a conflict is reported.
const DefaultConflictThreshold = 0.5

// InteractionConfig controls pairwise analysis. The zero value is valid.
type InteractionConfig struct {
	// ConflictThreshold is the selector overlap ratio, in (0, 1], a pair
	// needs before it can conflict. Zero or negative means the default.
	ConflictThreshold float64 `yaml:"conflictThreshold" json:"conflictThreshold"`
	// CrossNamespace compares policies from different namespaces too.
	CrossNamespace      bool   `yaml:"crossNamespace" json:"crossNamespace"`
	SeverityLabel       string `yaml:"severityLabel" json:"severityLabel" validate:"omitempty,labelkey"`
	IntentLabel         string `yaml:"intentLabel" json:"intentLabel" validate:"omitempty,labelkey"`
	DependsOnAnnotation string `yaml:"dependsOnAnnotation" json:"dependsOnAnnotation" validate:"omitempty,labelkey"`
	OrderAnnotation     string `yaml:"orderAnnotation" json:"orderAnnotation" validate:"omitempty,labelkey"`

	Logger  logging.Logger    `yaml:"-" json:"-"`
	Metrics *metrics.Registry `yaml:"-" json:"-"`
}

func (c InteractionConfig) withDefaults() InteractionConfig {
	c.ConflictThreshold = validation.DefaultOrFloat(c.ConflictThreshold, DefaultConflictThreshold)
	c.SeverityLabel = validation.DefaultOr(c.SeverityLabel, policy.LabelSeverity)
	c.IntentLabel = validation.DefaultOr(c.IntentLabel, policy.LabelIntent)
	c.DependsOnAnnotation = validation.DefaultOr(c.DependsOnAnnotation, policy.AnnotationDependsOn)
	c.OrderAnnotation = validation.DefaultOr(c.OrderAnnotation, policy.AnnotationOrder)
	c.Logger = logging.OrNop(c.Logger)
	return c
}

// Validate rejects thresholds above 1 and malformed label keys.
func (c InteractionConfig) Validate() error {
	return validation.NewConfigValidator("InteractionConfig").
		When(c.ConflictThreshold > 0, func(cv *validation.ConfigValidator) {
			cv.RangeFloat("ConflictThreshold", c.ConflictThreshold, 0, 1)
		}).
		Custom("labels", func() error {
			if fe := validation.NewStructValidator().Check(c); fe != nil {
				return fe
			}
			return nil
		}).
		Validate()
}
