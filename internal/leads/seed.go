package leads

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedLead struct {
	Name           string        `yaml:"name"`
	Position       string        `yaml:"position"`
	Company        string        `yaml:"company"`
	LinkedInURL    string        `yaml:"linkedinUrl"`
	Email          string        `yaml:"email"`
	Phone          string        `yaml:"phone"`
	Status         string        `yaml:"status"`
	Tags           []string      `yaml:"tags"`
	Notes          string        `yaml:"notes"`
	CreatedAgo     time.Duration `yaml:"createdAgo"`
	UpdatedAgo     time.Duration `yaml:"updatedAgo"`
	LastContactAgo time.Duration `yaml:"lastContactAgo"`
}

// DemoLeads builds the demonstration set with timestamps relative to now.
func DemoLeads(now time.Time, newID func() string) ([]Lead, error) {
	var seeds []seedLead
	if err := yaml.Unmarshal(seedYAML, &seeds); err != nil {
		return nil, fmt.Errorf("leads: decode seed: %w", err)
	}

	out := make([]Lead, 0, len(seeds))
	for _, s := range seeds {
		status, err := ParseStatus(s.Status)
		if err != nil {
			return nil, fmt.Errorf("leads: seed %q: %w", s.Name, err)
		}
		lead := Lead{
			ID:          newID(),
			Name:        s.Name,
			Company:     s.Company,
			Position:    s.Position,
			LinkedInURL: s.LinkedInURL,
			Email:       s.Email,
			Phone:       s.Phone,
			Notes:       s.Notes,
			Status:      status,
			Tags:        UniqueTags(s.Tags),
			CreatedAt:   now.Add(-s.CreatedAgo),
			UpdatedAt:   now.Add(-s.UpdatedAgo),
		}
		if s.LastContactAgo > 0 {
			ts := now.Add(-s.LastContactAgo)
			lead.LastContactDate = &ts
		}
		out = append(out, lead)
	}
	return out, nil
}
