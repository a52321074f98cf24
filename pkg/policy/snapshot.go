package policy

// Workload is a pod, or a controller's pod template, in a cluster snapshot.
type Workload struct {
	Name      string            `json:"name" validate:"required"`
	Namespace string            `json:"namespace,omitempty"`
	Kind      string            `json:"kind,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Status    string            `json:"status,omitempty"`
	Resources map[string]string `json:"resources,omitempty"`
}

// Service routes to the pods its selector matches.
type Service struct {
	Name      string            `json:"name" validate:"required"`
	Namespace string            `json:"namespace,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Selector  Selector          `json:"selector,omitempty"`
	Status    string            `json:"status,omitempty"`
}

// NetworkPolicy is the topology view of a policy: which pods it selects and
// how many rules it has in each direction.
type NetworkPolicy struct {
	Name         string            `json:"name" validate:"required"`
	Namespace    string            `json:"namespace,omitempty"`
	Labels       map[string]string `json:"labels,omitempty"`
	PodSelector  Selector          `json:"podSelector,omitempty"`
	PolicyTypes  []string          `json:"policyTypes,omitempty"`
	IngressRules int               `json:"ingressRules,omitempty" validate:"min=0"`
	EgressRules  int               `json:"egressRules,omitempty" validate:"min=0"`
}

// Record converts the network policy into a policy record for the
// dependency and interaction builders.
func (p NetworkPolicy) Record() Record {
	return Record{
		Name:         p.Name,
		Namespace:    p.Namespace,
		Kind:         "NetworkPolicy",
		Labels:       p.Labels,
		Selector:     p.PodSelector,
		Rules:        make([]Rule, max(p.IngressRules, 0)+max(p.EgressRules, 0)),
		IngressRules: p.IngressRules,
		EgressRules:  p.EgressRules,
		PolicyTypes:  p.PolicyTypes,
	}
}

// ClusterSnapshot is the topology builder's input.
type ClusterSnapshot struct {
	Pods            []Workload      `json:"pods"`
	Services        []Service       `json:"services"`
	NetworkPolicies []NetworkPolicy `json:"networkPolicies"`
}
