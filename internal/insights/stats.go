package insights

import (
	"math"
	"sort"
	"time"

	"github.com/wolfman30/prospector/internal/leads"
)

const (
	newLeadWindow = 7 * 24 * time.Hour
	defaultLimit  = 5
)

// Statistics aggregates the dashboard counters.
type Statistics struct {
	Total          int                  `json:"total"`
	NewThisWeek    int                  `json:"newThisWeek"`
	ByStatus       map[leads.Status]int `json:"byStatus"`
	ConversionRate float64              `json:"conversionRate"`
}

// Count returns the number of leads in status s.
func (s Statistics) Count(status leads.Status) int {
	return s.ByStatus[status]
}

// ComputeStatistics counts leads by status and creation recency. The
// conversion rate is converted/total*100 rounded to one decimal, 0 when empty.
func ComputeStatistics(all []leads.Lead, now time.Time) Statistics {
	stats := Statistics{
		Total:    len(all),
		ByStatus: make(map[leads.Status]int, len(leads.Statuses)),
	}
	for _, s := range leads.Statuses {
		stats.ByStatus[s] = 0
	}

	cutoff := now.Add(-newLeadWindow)
	for _, lead := range all {
		stats.ByStatus[lead.Status]++
		if !lead.CreatedAt.Before(cutoff) {
			stats.NewThisWeek++
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.ByStatus[leads.StatusConverted]) / float64(stats.Total) * 100
		stats.ConversionRate = math.Round(rate*10) / 10
	}
	return stats
}

// ActivityKind classifies an entry of the recent activity feed.
type ActivityKind string

const (
	ActivityCreated ActivityKind = "created"
	ActivityUpdated ActivityKind = "updated"
)

// Activity is one entry of the recent activity feed.
type Activity struct {
	LeadID  string       `json:"leadId"`
	Name    string       `json:"name"`
	Company string       `json:"company"`
	Status  leads.Status `json:"status"`
	Kind    ActivityKind `json:"kind"`
	At      time.Time    `json:"at"`
}

// RecentActivity returns up to limit leads ordered by updatedAt, newest first.
// A lead whose createdAt equals its updatedAt is reported as created. limit <= 0
// means the default of 5.
func RecentActivity(all []leads.Lead, limit int) []Activity {
	if limit <= 0 {
		limit = defaultLimit
	}
	sorted := make([]leads.Lead, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]Activity, 0, len(sorted))
	for _, lead := range sorted {
		kind := ActivityUpdated
		if lead.CreatedAt.Equal(lead.UpdatedAt) {
			kind = ActivityCreated
		}
		out = append(out, Activity{
			LeadID:  lead.ID,
			Name:    lead.Name,
			Company: lead.Company,
			Status:  lead.Status,
			Kind:    kind,
			At:      lead.UpdatedAt,
		})
	}
	return out
}

// Priority ranks a suggested action.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Action is a suggested next step for a lead.
type Action struct {
	LeadID   string       `json:"leadId"`
	Name     string       `json:"name"`
	Company  string       `json:"company"`
	Status   leads.Status `json:"status"`
	Action   string       `json:"action"`
	Priority Priority     `json:"priority"`
}

var nextActions = map[leads.Status]struct {
	action   string
	priority Priority
}{
	leads.StatusNew:       {"first contact", PriorityHigh},
	leads.StatusContacted: {"follow up", PriorityMedium},
	leads.StatusResponded: {"schedule meeting", PriorityHigh},
}

// UpcomingActions suggests the next step for new, contacted and responded
// leads in collection order, truncated to limit (default 5).
func UpcomingActions(all []leads.Lead, limit int) []Action {
	if limit <= 0 {
		limit = defaultLimit
	}
	out := make([]Action, 0, limit)
	for _, lead := range all {
		if len(out) == limit {
			break
		}
		next, ok := nextActions[lead.Status]
		if !ok {
			continue
		}
		out = append(out, Action{
			LeadID:   lead.ID,
			Name:     lead.Name,
			Company:  lead.Company,
			Status:   lead.Status,
			Action:   next.action,
			Priority: next.priority,
		})
	}
	return out
}
