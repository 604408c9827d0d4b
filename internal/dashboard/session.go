// Package dashboard is the owning context for one user's dashboard: it holds
// the stores, the notification channel and the active filter, and re-derives
// every view right after each confirmed change.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/wolfman30/prospector/internal/campaigns"
	"github.com/wolfman30/prospector/internal/insights"
	"github.com/wolfman30/prospector/internal/leads"
	"github.com/wolfman30/prospector/internal/notify"
	"github.com/wolfman30/prospector/internal/observability/metrics"
	"github.com/wolfman30/prospector/pkg/logging"
)

const (
	recentActivityLimit  = 5
	upcomingActionsLimit = 5
)

// View is everything the dashboard renders, derived from one snapshot.
type View struct {
	Criteria        insights.Criteria    `json:"criteria"`
	Leads           []leads.Lead         `json:"leads"`
	Tags            []string             `json:"tags"`
	StatusOptions   []string             `json:"statusOptions"`
	Statistics      insights.Statistics  `json:"statistics"`
	RecentActivity  []insights.Activity  `json:"recentActivity"`
	UpcomingActions []insights.Action    `json:"upcomingActions"`
	Campaigns       []campaigns.Campaign `json:"campaigns"`
	CampaignSummary campaigns.Summary    `json:"campaignSummary"`
	LastError       string               `json:"lastError,omitempty"`
	GeneratedAt     time.Time            `json:"generatedAt"`
}

// clone returns a copy sharing no maps or slices with v.
func (v View) clone() View {
	out := v
	if v.Leads != nil {
		out.Leads = make([]leads.Lead, len(v.Leads))
		for i, lead := range v.Leads {
			out.Leads[i] = lead.Clone()
		}
	}
	out.Tags = slices.Clone(v.Tags)
	out.StatusOptions = slices.Clone(v.StatusOptions)
	out.RecentActivity = slices.Clone(v.RecentActivity)
	out.UpcomingActions = slices.Clone(v.UpcomingActions)
	out.Campaigns = slices.Clone(v.Campaigns)
	out.Statistics.ByStatus = maps.Clone(v.Statistics.ByStatus)
	return out
}

// ImportResult reports a CSV import.
type ImportResult struct {
	Imported []leads.Lead     `json:"imported"`
	Rejected []leads.RowError `json:"rejected"`
}

// Session serializes user operations against the stores.
type Session struct {
	mu        sync.Mutex
	leads     *leads.Store
	campaigns *campaigns.Store
	notify    *notify.Channel
	metrics   *metrics.StoreMetrics
	logger    *logging.Logger
	now       func() time.Time
	region    string
	criteria  insights.Criteria
	view      View
}

// Option customizes a Session.
type Option func(*Session)

// WithClock overrides the time source used for derived statistics.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records validation rejections.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithPhoneRegion sets the default region for phone numbers in CSV imports.
func WithPhoneRegion(region string) Option {
	return func(s *Session) {
		if region != "" {
			s.region = region
		}
	}
}

// NewSession wires a session. All three collaborators are required.
func NewSession(leadStore *leads.Store, campaignStore *campaigns.Store, channel *notify.Channel, opts ...Option) *Session {
	if leadStore == nil || campaignStore == nil || channel == nil {
		panic("dashboard: lead store, campaign store and notification channel required")
	}
	s := &Session{
		leads:     leadStore,
		campaigns: campaignStore,
		notify:    channel,
		logger:    logging.Default(),
		now:       func() time.Time { return time.Now().UTC() },
		region:    "ES",
		criteria:  insights.Criteria{Status: insights.StatusAll},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads both stores and derives the first view. A failure to store the
// demonstration data is reported but leaves the session usable.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.leads.Init(ctx); err != nil {
		s.logger.Error("failed to initialize leads", "error", err)
		s.notify.Error("Could not load leads")
		errs = append(errs, err)
	}
	if err := s.campaigns.Init(ctx); err != nil {
		s.logger.Error("failed to initialize campaigns", "error", err)
		s.notify.Error("Could not load campaigns")
		errs = append(errs, err)
	}
	s.refresh()
	return errors.Join(errs...)
}

// CreateLead validates in and adds it. Invalid input is rejected with a
// *leads.ValidationError before the store is touched.
func (s *Session) CreateLead(ctx context.Context, in leads.LeadInput) (leads.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reject(leads.Validate(in)); err != nil {
		return leads.Lead{}, err
	}
	lead, err := s.leads.Add(ctx, in)
	switch {
	case err == nil:
		s.notify.Success(fmt.Sprintf("Lead %s created", lead.Name))
	case errors.Is(err, leads.ErrNotPersisted):
		s.notify.Error("Lead added but could not be saved to storage")
	default:
		s.notify.Error("Could not add lead")
	}
	s.refresh()
	return lead, err
}

// UpdateLead validates the merged record and applies patch.
func (s *Session) UpdateLead(ctx context.Context, id string, patch leads.LeadPatch) (leads.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.leads.GetByID(id)
	if !ok {
		s.notify.Error("Lead not found")
		return leads.Lead{}, leads.ErrLeadNotFound
	}
	if err := s.reject(leads.ValidatePatch(existing, patch)); err != nil {
		return leads.Lead{}, err
	}

	lead, err := s.leads.Update(ctx, id, patch)
	switch {
	case err == nil:
		s.notify.Success(fmt.Sprintf("Lead %s updated", lead.Name))
	case errors.Is(err, leads.ErrLeadNotFound):
		s.notify.Error("Lead not found")
	case errors.Is(err, leads.ErrNotPersisted):
		s.notify.Error("Lead updated but could not be saved to storage")
	default:
		s.notify.Error("Could not update lead")
	}
	s.refresh()
	return lead, err
}

// DeleteLead removes the lead with id. Deleting a missing lead succeeds.
func (s *Session) DeleteLead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.leads.Delete(ctx, id); err != nil {
		s.notify.Error("Lead deleted but the change could not be saved to storage")
		s.refresh()
		return err
	}
	s.notify.Success("Lead deleted")
	s.refresh()
	return nil
}

// SetFilter replaces the filter criteria and returns the re-derived view.
func (s *Session) SetFilter(c insights.Criteria) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Status == "" {
		c.Status = insights.StatusAll
	}
	s.criteria = c
	s.refresh()
	return s.view.clone()
}

// View returns the view derived after the last operation.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.clone()
}

// Notifications returns the currently visible notifications.
func (s *Session) Notifications() []notify.Notification {
	return s.notify.Active()
}

// DismissNotification hides a notification before it expires.
func (s *Session) DismissNotification(id string) bool {
	return s.notify.Dismiss(id)
}

// ImportCSV adds every valid row of r as a new lead. Invalid rows are skipped
// and reported in the result. The returned error is the first storage failure.
func (s *Session) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputs, rowErrs := leads.ImportCSV(r, s.region)
	result := ImportResult{Imported: []leads.Lead{}, Rejected: rowErrs}
	for _, re := range rowErrs {
		for field := range re.Fields {
			s.metrics.ObserveValidationRejection(field)
		}
	}

	var firstErr error
	for _, in := range inputs {
		lead, err := s.leads.Add(ctx, in)
		if err != nil && !errors.Is(err, leads.ErrNotPersisted) {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		result.Imported = append(result.Imported, lead)
	}

	switch {
	case firstErr != nil:
		s.notify.Error("Imported leads could not all be saved to storage")
	case len(result.Imported) > 0:
		s.notify.Success(fmt.Sprintf("Imported %d leads", len(result.Imported)))
	default:
		s.notify.Info("No leads imported")
	}
	if len(rowErrs) > 0 {
		s.notify.Warning(fmt.Sprintf("Skipped %d invalid rows", len(rowErrs)))
	}
	s.logger.Info("csv import finished", "imported", len(result.Imported), "rejected", len(rowErrs))
	s.refresh()
	return result, firstErr
}

// Close cancels pending notification timers.
func (s *Session) Close() {
	s.notify.Close()
}

// ExportCSV writes every lead, unfiltered, to w.
func (s *Session) ExportCSV(w io.Writer) error {
	return leads.ExportCSV(w, s.leads.List())
}

// CreateCampaign validates in and adds a campaign.
func (s *Session) CreateCampaign(ctx context.Context, in campaigns.Input) (campaigns.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reject(campaigns.Validate(in)); err != nil {
		return campaigns.Campaign{}, err
	}
	c, err := s.campaigns.Add(ctx, in)
	s.campaignOutcome(err, fmt.Sprintf("Campaign %s created", c.Name))
	return c, err
}

// UpdateCampaign validates in and replaces the campaign's editable fields.
func (s *Session) UpdateCampaign(ctx context.Context, id string, in campaigns.Input) (campaigns.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reject(campaigns.Validate(in)); err != nil {
		return campaigns.Campaign{}, err
	}
	c, err := s.campaigns.Update(ctx, id, in)
	s.campaignOutcome(err, fmt.Sprintf("Campaign %s updated", c.Name))
	return c, err
}

// ToggleCampaign starts or pauses a campaign.
func (s *Session) ToggleCampaign(ctx context.Context, id string) (campaigns.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.campaigns.Toggle(ctx, id)
	s.campaignOutcome(err, fmt.Sprintf("Campaign %s is now %s", c.Name, c.Status))
	return c, err
}

// DeleteCampaign removes a campaign.
func (s *Session) DeleteCampaign(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.campaigns.Delete(ctx, id)
	s.campaignOutcome(err, "Campaign deleted")
	return err
}

func (s *Session) campaignOutcome(err error, success string) {
	switch {
	case err == nil:
		s.notify.Success(success)
	case errors.Is(err, campaigns.ErrCampaignNotFound):
		s.notify.Error("Campaign not found")
	case errors.Is(err, campaigns.ErrNotPersisted):
		s.notify.Error("Campaign changed but could not be saved to storage")
	default:
		s.notify.Error("Campaign operation failed")
	}
	s.refresh()
}

// reject turns a non-empty field map into a *leads.ValidationError. Validation
// failures are shown inline, so no notification is emitted.
func (s *Session) reject(fieldErrs leads.FieldErrors) error {
	if len(fieldErrs) == 0 {
		return nil
	}
	for field := range fieldErrs {
		s.metrics.ObserveValidationRejection(field)
	}
	s.logger.Debug("write rejected by validation", "fields", fieldErrs.Fields())
	return fieldErrs.Err()
}

func (s *Session) refresh() {
	all := s.leads.List()
	cs := s.campaigns.List()
	now := s.now()
	s.view = View{
		Criteria:        s.criteria,
		Leads:           insights.Filter(all, s.criteria),
		Tags:            insights.CollectTags(all),
		StatusOptions:   insights.StatusOptions(),
		Statistics:      insights.ComputeStatistics(all, now),
		RecentActivity:  insights.RecentActivity(all, recentActivityLimit),
		UpcomingActions: insights.UpcomingActions(all, upcomingActionsLimit),
		Campaigns:       cs,
		CampaignSummary: campaigns.Summarize(cs),
		LastError:       s.leads.LastError(),
		GeneratedAt:     now,
	}
}
