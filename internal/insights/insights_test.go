package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/prospector/internal/leads"
)

var refNow = time.Date(2024, 3, 18, 12, 0, 0, 0, time.UTC)

func sampleLeads() []leads.Lead {
	at := func(d time.Duration) time.Time { return refNow.Add(-d) }
	return []leads.Lead{
		{ID: "1", Name: "Carlos Martínez", Company: "Tech Solutions SA", Position: "CEO", Email: "carlos@techsolutions.com",
			Status: leads.StatusNew, Tags: []string{"CEO", "Tech", "B2B"}, CreatedAt: at(48 * time.Hour), UpdatedAt: at(48 * time.Hour)},
		{ID: "2", Name: "María García", Company: "Innovate Corp", Position: "CTO", Email: "maria@innovatecorp.com",
			Status: leads.StatusContacted, Tags: []string{"CTO", "SaaS"}, CreatedAt: at(120 * time.Hour), UpdatedAt: at(24 * time.Hour)},
		{ID: "3", Name: "Juan López", Company: "Digital Agency", Position: "Director de Marketing",
			Status: leads.StatusResponded, Tags: []string{"Marketing", "B2B"}, CreatedAt: at(240 * time.Hour), UpdatedAt: at(0)},
		{ID: "4", Name: "Ana Rodríguez", Company: "Sales Pro", Position: "VP de Ventas",
			Status: leads.StatusConverted, Tags: []string{"Enterprise"}, CreatedAt: at(720 * time.Hour), UpdatedAt: at(120 * time.Hour)},
		{ID: "5", Name: "Bo", Company: "Acme", Status: leads.StatusNew, CreatedAt: at(time.Hour), UpdatedAt: at(time.Hour)},
	}
}

func ids(ls []leads.Lead) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	all := sampleLeads()
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"zero value keeps all", Criteria{}, []string{"1", "2", "3", "4", "5"}},
		{"all sentinel", Criteria{Status: StatusAll}, []string{"1", "2", "3", "4", "5"}},
		{"status", Criteria{Status: "new"}, []string{"1", "5"}},
		{"search name case-insensitive", Criteria{Search: "MARÍA"}, []string{"2"}},
		{"search company", Criteria{Search: "agency"}, []string{"3"}},
		{"search position", Criteria{Search: "vp de"}, []string{"4"}},
		{"search email", Criteria{Search: "techsolutions.com"}, []string{"1"}},
		{"tag exact", Criteria{Tag: "B2B"}, []string{"1", "3"}},
		{"tag is case-sensitive", Criteria{Tag: "b2b"}, []string{}},
		{"combined", Criteria{Search: "a", Status: "responded", Tag: "B2B"}, []string{"3"}},
		{"no match", Criteria{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(all, tt.criteria)))
		})
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	c := Criteria{Search: "o", Status: StatusAll, Tag: "B2B"}
	once := Filter(sampleLeads(), c)
	twice := Filter(once, c)
	assert.Equal(t, once, twice)
}

func TestFilterDoesNotAliasInput(t *testing.T) {
	all := sampleLeads()
	out := Filter(all, Criteria{})
	out[0].Tags[0] = "mutated"
	out[0].Name = "mutated"
	assert.Equal(t, "CEO", all[0].Tags[0])
	assert.Equal(t, "Carlos Martínez", all[0].Name)
}

func TestCollectTags(t *testing.T) {
	assert.Equal(t,
		[]string{"B2B", "CEO", "CTO", "Enterprise", "Marketing", "SaaS", "Tech"},
		CollectTags(sampleLeads()))
	assert.Empty(t, CollectTags(nil))
}

func TestStatusOptions(t *testing.T) {
	assert.Equal(t, []string{"all", "new", "contacted", "responded", "qualified", "converted", "lost"}, StatusOptions())
}

func TestComputeStatistics(t *testing.T) {
	stats := ComputeStatistics(sampleLeads(), refNow)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.NewThisWeek)
	assert.Equal(t, 2, stats.Count(leads.StatusNew))
	assert.Equal(t, 1, stats.Count(leads.StatusConverted))
	assert.Equal(t, 0, stats.Count(leads.StatusLost))
	assert.Len(t, stats.ByStatus, 6)
	assert.Equal(t, 20.0, stats.ConversionRate)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil, refNow)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.NewThisWeek)
	assert.Equal(t, 0.0, stats.ConversionRate)
	require.Len(t, stats.ByStatus, 6)
	for _, s := range leads.Statuses {
		assert.Equal(t, 0, stats.ByStatus[s], s)
	}
}

func TestComputeStatisticsScenario(t *testing.T) {
	all := []leads.Lead{
		{Name: "Ana", Company: "Acme", Status: leads.StatusNew},
		{Name: "Bo", Company: "Acme", Status: leads.StatusConverted},
	}
	stats := ComputeStatistics(all, refNow)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Count(leads.StatusConverted))
	assert.Equal(t, 50.0, stats.ConversionRate)
}

func TestComputeStatisticsRoundsToOneDecimal(t *testing.T) {
	all := []leads.Lead{
		{Status: leads.StatusConverted},
		{Status: leads.StatusNew},
		{Status: leads.StatusLost},
	}
	assert.Equal(t, 33.3, ComputeStatistics(all, refNow).ConversionRate)
}

func TestRecentActivity(t *testing.T) {
	got := RecentActivity(sampleLeads(), 3)
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[0].LeadID)
	assert.Equal(t, ActivityUpdated, got[0].Kind)
	assert.Equal(t, "5", got[1].LeadID)
	assert.Equal(t, ActivityCreated, got[1].Kind)
	assert.Equal(t, "2", got[2].LeadID)

	assert.Len(t, RecentActivity(sampleLeads(), 0), 5)
	assert.Empty(t, RecentActivity(nil, 5))
}

func TestUpcomingActions(t *testing.T) {
	got := UpcomingActions(sampleLeads(), 0)
	require.Len(t, got, 4)
	assert.Equal(t, []Action{
		{LeadID: "1", Name: "Carlos Martínez", Company: "Tech Solutions SA", Status: leads.StatusNew, Action: "first contact", Priority: PriorityHigh},
		{LeadID: "2", Name: "María García", Company: "Innovate Corp", Status: leads.StatusContacted, Action: "follow up", Priority: PriorityMedium},
		{LeadID: "3", Name: "Juan López", Company: "Digital Agency", Status: leads.StatusResponded, Action: "schedule meeting", Priority: PriorityHigh},
		{LeadID: "5", Name: "Bo", Company: "Acme", Status: leads.StatusNew, Action: "first contact", Priority: PriorityHigh},
	}, got)

	limited := UpcomingActions(sampleLeads(), 2)
	assert.Equal(t, "1", limited[0].LeadID)
	assert.Equal(t, "2", limited[1].LeadID)
}

func TestFormatRelativeTime(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{time.Minute, "1 min ago"},
		{59 * time.Minute, "59 min ago"},
		{time.Hour, "1h ago"},
		{23*time.Hour + 59*time.Minute, "23h ago"},
		{24 * time.Hour, "yesterday"},
		{47 * time.Hour, "yesterday"},
		{48 * time.Hour, "2 days ago"},
		{6 * 24 * time.Hour, "6 days ago"},
		{7 * 24 * time.Hour, "Mar 11, 2024"},
		{-time.Hour, "Mar 18, 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRelativeTime(refNow.Add(-tt.ago), refNow))
		})
	}
}
