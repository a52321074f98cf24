package topology

import (
	"github.com/dd0wney/cluso-policygraph/pkg/logging"
	"github.com/dd0wney/cluso-policygraph/pkg/metrics"
)

// TopologyConfig controls the topology builder. The zero value is valid.
type TopologyConfig struct {
	// GroupByNamespace adds the ByNamespace index to the result.
	GroupByNamespace bool `yaml:"groupByNamespace" json:"groupByNamespace"`
	// ExcludePolicies leaves network policies and their edges out.
	ExcludePolicies bool `yaml:"excludePolicies" json:"excludePolicies"`

	Logger  logging.Logger    `yaml:"-" json:"-"`
	Metrics *metrics.Registry `yaml:"-" json:"-"`
}

// Validate always succeeds; every combination of flags is meaningful.
func (c TopologyConfig) Validate() error {
	return nil
}
