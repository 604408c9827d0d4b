// Package insights derives views and statistics from a snapshot of leads.
// Functions never modify their input and always return fresh slices.
package insights

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/wolfman30/prospector/internal/leads"
)

// StatusAll is the status filter value that matches every lead.
const StatusAll = "all"

// Criteria selects leads. The zero value matches every lead; a Status of
// StatusAll does too.
type Criteria struct {
	Search string `json:"search"`
	Status string `json:"status"`
	Tag    string `json:"tag"`
}

// Filter keeps the leads that match c, preserving source order.
func Filter(all []leads.Lead, c Criteria) []leads.Lead {
	needle := fold(strings.TrimSpace(c.Search))
	out := make([]leads.Lead, 0, len(all))
	for _, lead := range all {
		if !matchesSearch(lead, needle) || !matchesStatus(lead, c.Status) {
			continue
		}
		if c.Tag != "" && !lead.HasTag(c.Tag) {
			continue
		}
		out = append(out, lead.Clone())
	}
	return out
}

// CollectTags returns every distinct tag across leads, sorted.
func CollectTags(all []leads.Lead) []string {
	seen := make(map[string]struct{})
	for _, lead := range all {
		for _, tag := range lead.Tags {
			seen[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// StatusOptions lists the status filter values in display order, starting with StatusAll.
func StatusOptions() []string {
	out := []string{StatusAll}
	for _, s := range leads.Statuses {
		out = append(out, string(s))
	}
	return out
}

func matchesSearch(lead leads.Lead, needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range []string{lead.Name, lead.Company, lead.Position, lead.Email} {
		if strings.Contains(fold(field), needle) {
			return true
		}
	}
	return false
}

func matchesStatus(lead leads.Lead, status string) bool {
	return status == "" || status == StatusAll || string(lead.Status) == status
}

// fold applies Unicode case folding so "MARÍA" matches "maría".
func fold(s string) string {
	return cases.Fold().String(s)
}
