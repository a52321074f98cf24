package manifest

type networkPolicyObject struct {
	Metadata Metadata `yaml:"metadata"`
	Spec     struct {
		PodSelector *LabelSelector   `yaml:"podSelector"`
		PolicyTypes []string         `yaml:"policyTypes"`
		Ingress     []map[string]any `yaml:"ingress"`
		Egress      []map[string]any `yaml:"egress"`
	} `yaml:"spec"`
}

type kyvernoObject struct {
	Metadata Metadata `yaml:"metadata"`
	Spec     struct {
		Rules                   []map[string]any `yaml:"rules"`
		Selector                *LabelSelector   `yaml:"selector"`
		ValidationFailureAction string           `yaml:"validationFailureAction"`
	} `yaml:"spec"`
}

type resources struct {
	Requests map[string]string `yaml:"requests"`
	Limits   map[string]string `yaml:"limits"`
}

type podSpec struct {
	Containers []struct {
		Name      string    `yaml:"name"`
		Resources resources `yaml:"resources"`
	} `yaml:"containers"`
}

type podObject struct {
	Metadata Metadata `yaml:"metadata"`
	Spec     podSpec  `yaml:"spec"`
	Status   struct {
		Phase string `yaml:"phase"`
	} `yaml:"status"`
}

type podTemplate struct {
	Metadata Metadata `yaml:"metadata"`
	Spec     podSpec  `yaml:"spec"`
}

type workloadObject struct {
	Metadata Metadata `yaml:"metadata"`
	Spec     struct {
		Template    podTemplate `yaml:"template"`
		JobTemplate struct {
			Spec struct {
				Template podTemplate `yaml:"template"`
			} `yaml:"spec"`
		} `yaml:"jobTemplate"`
	} `yaml:"spec"`
}

type serviceObject struct {
	Metadata Metadata `yaml:"metadata"`
	Spec     struct {
		Selector map[string]string `yaml:"selector"`
	} `yaml:"spec"`
}

// rbacObject keeps presence information for the required fields.
type rbacObject struct {
	Rules    *[]map[string]any `yaml:"rules"`
	RoleRef  map[string]any    `yaml:"roleRef"`
	Subjects *[]map[string]any `yaml:"subjects"`
}
