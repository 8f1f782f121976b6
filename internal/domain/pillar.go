package domain

import "fmt"

// Pillar is one of the five fixed trust categories an endorsement is scoped to.
type Pillar string

const (
	PillarEducation      Pillar = "education"
	PillarCulture        Pillar = "culture"
	PillarResponsibility Pillar = "responsibility"
	PillarEnvironment    Pillar = "environment"
	PillarEconomy        Pillar = "economy"
)

// Pillars lists all pillars in their canonical display order. Score rollups
// iterate this slice so pillar_scores always come back in the same order.
var Pillars = []Pillar{
	PillarEducation,
	PillarCulture,
	PillarResponsibility,
	PillarEnvironment,
	PillarEconomy,
}

// pillarNames maps each pillar to its human-readable label.
var pillarNames = map[Pillar]string{
	PillarEducation:      "Education & Skills",
	PillarCulture:        "Culture & Ethics",
	PillarResponsibility: "Responsibility & Reliability",
	PillarEnvironment:    "Environment & Community",
	PillarEconomy:        "Economy & Contribution",
}

// Valid reports whether p is one of the five known pillars.
func (p Pillar) Valid() bool {
	_, ok := pillarNames[p]
	return ok
}

// DisplayName returns the human-readable label for the pillar, or the raw
// value if the pillar is unknown.
func (p Pillar) DisplayName() string {
	if name, ok := pillarNames[p]; ok {
		return name
	}
	return string(p)
}

// ParsePillar converts a string into a Pillar, rejecting unknown values.
func ParsePillar(s string) (Pillar, error) {
	p := Pillar(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown pillar %q", s)
	}
	return p, nil
}
