// Package quota defines per-plan storage limits, loaded from an embedded
// YAML file so plan changes ship with the binary.
package quota

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Plan describes one subscription tier
type Plan struct {
	ID             string `yaml:"id"`
	DisplayName    string `yaml:"display_name"`
	StorageBytes   int64  `yaml:"storage_bytes"`
	MaxFileBytes   int64  `yaml:"max_file_bytes"`
	MaxVersions    int    `yaml:"max_versions"`
	SharingAllowed bool   `yaml:"sharing_allowed"`
}

type planFile struct {
	DefaultPlan string `yaml:"default_plan"`
	Plans       []Plan `yaml:"plans"`
}

// Registry resolves plan IDs to their quota limits
type Registry struct {
	defaultPlan string
	plans       map[string]*Plan
	mu          sync.RWMutex
}

// NewRegistry loads the embedded plan definitions
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/plans.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read plans.yaml: %w", err)
	}

	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plans.yaml: %w", err)
	}

	r := &Registry{
		defaultPlan: pf.DefaultPlan,
		plans:       make(map[string]*Plan, len(pf.Plans)),
	}
	for i := range pf.Plans {
		r.plans[pf.Plans[i].ID] = &pf.Plans[i]
	}

	if _, ok := r.plans[r.defaultPlan]; !ok {
		return nil, fmt.Errorf("default plan %q is not defined", r.defaultPlan)
	}

	return r, nil
}

// GetPlan returns the plan with the given ID
func (r *Registry) GetPlan(id string) (*Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plan, ok := r.plans[id]
	if !ok {
		return nil, fmt.Errorf("unknown plan: %s", id)
	}

	return plan, nil
}

// PlanOrDefault returns the plan with the given ID, falling back to the
// default plan when the ID is empty or unknown.
func (r *Registry) PlanOrDefault(id string) *Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if plan, ok := r.plans[id]; ok {
		return plan
	}

	return r.plans[r.defaultPlan]
}

// ListPlans returns all plans in no particular order
func (r *Registry) ListPlans() []Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plan, 0, len(r.plans))
	for _, plan := range r.plans {
		out = append(out, *plan)
	}

	return out
}
