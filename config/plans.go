package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FreePlanID is the plan that starts a local trial instead of a checkout.
const FreePlanID = "gratuito"

//go:embed plans.yaml
var plansYAML []byte

type Plan struct {
	ID             string `yaml:"id" json:"id"`
	Label          string `yaml:"label" json:"label"`
	MonthlyPrice   int64  `yaml:"monthly_price" json:"monthly_price"`
	Paid           bool   `yaml:"paid" json:"paid"`
	StripePriceEnv string `yaml:"stripe_price_env" json:"-"`
	StripePriceID  string `yaml:"-" json:"-"`
}

type PlanCatalog struct {
	Plans []Plan `yaml:"plans"`
}

// LoadPlans parses the embedded catalog and resolves Stripe price ids from the
// environment.
func LoadPlans() (*PlanCatalog, error) {
	return ParsePlans(plansYAML)
}

func ParsePlans(raw []byte) (*PlanCatalog, error) {
	var catalog PlanCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	if len(catalog.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog is empty")
	}

	seen := make(map[string]bool, len(catalog.Plans))
	for i := range catalog.Plans {
		p := &catalog.Plans[i]
		if p.ID == "" || seen[p.ID] {
			return nil, fmt.Errorf("plan catalog: missing or duplicate id %q", p.ID)
		}
		seen[p.ID] = true
		if p.StripePriceEnv != "" {
			p.StripePriceID = os.Getenv(p.StripePriceEnv)
		}
	}
	return &catalog, nil
}

func (c *PlanCatalog) Get(id string) (Plan, bool) {
	for _, p := range c.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
