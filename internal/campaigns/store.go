package campaigns

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/wolfman30/prospector/internal/kvstore"
	"github.com/wolfman30/prospector/internal/observability/metrics"
	"github.com/wolfman30/prospector/pkg/logging"
)

// DefaultStorageKey is the key the campaign collection is stored under.
const DefaultStorageKey = "prospector-linkedin-campaigns"

const metricsCollection = "campaigns"

var campaignTracer = otel.Tracer("prospector/campaigns")

//go:embed seed.yaml
var seedYAML []byte

// Store owns the campaign collection and saves it whole after every change.
type Store struct {
	mu        sync.Mutex
	campaigns []Campaign
	medium    kvstore.Medium
	key       string
	logger    *logging.Logger
	metrics   *metrics.StoreMetrics
	now       func() time.Time
	newID     func() string
	seed      bool
}

// Option customizes a Store.
type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithSeed(enabled bool) Option {
	return func(s *Store) { s.seed = enabled }
}

// NewStore creates a campaign store over medium, writing under key
// (DefaultStorageKey when empty).
func NewStore(medium kvstore.Medium, key string, opts ...Option) *Store {
	if medium == nil {
		panic("campaigns: storage medium required")
	}
	if key == "" {
		key = DefaultStorageKey
	}
	s := &Store{
		campaigns: []Campaign{},
		medium:    medium,
		key:       key,
		logger:    logging.Default(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
		seed:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads stored campaigns, seeding the demonstration set when storage is
// empty or unreadable.
func (s *Store) Init(ctx context.Context) error {
	ctx, span := campaignTracer.Start(ctx, "campaigns.init")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, skipped, err := kvstore.LoadJSON[Campaign](ctx, s.medium, s.key)
	for _, se := range skipped {
		s.logger.Warn("dropping undecodable stored campaign", "key", s.key, "index", se.Index, "error", se.Err)
	}
	if err != nil {
		var malformed *kvstore.MalformedError
		if errors.As(err, &malformed) {
			s.logger.Warn("stored campaigns are malformed, starting empty", "key", s.key, "error", err)
		} else {
			s.logger.Error("failed to read stored campaigns", "key", s.key, "error", err)
		}
	}
	s.campaigns = loaded
	if s.campaigns == nil {
		s.campaigns = []Campaign{}
	}
	if len(s.campaigns) > 0 || !s.seed {
		s.metrics.SetCollectionSize(metricsCollection, len(s.campaigns))
		return nil
	}

	seeded, err := demoCampaigns(s.newID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.campaigns = seeded
	s.metrics.SetCollectionSize(metricsCollection, len(s.campaigns))
	if err := s.save(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("campaigns: seed: %w: %w", ErrNotPersisted, err)
	}
	s.logger.Info("seeded demonstration campaigns", "count", len(s.campaigns))
	return nil
}

// Add creates a campaign from a validated input. Status defaults to draft.
func (s *Store) Add(ctx context.Context, in Input) (Campaign, error) {
	ctx, span := campaignTracer.Start(ctx, "campaigns.add")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := Campaign{ID: s.newID(), CreatedAt: now}
	apply(&c, in, now)
	if !c.Status.Valid() {
		c.Status = StatusDraft
	}
	span.SetAttributes(attribute.String("campaign.id", c.ID))

	s.campaigns = append(s.campaigns, c)
	s.metrics.SetCollectionSize(metricsCollection, len(s.campaigns))
	return c, s.commit(ctx, "add")
}

// Update replaces the editable fields of the campaign with id.
func (s *Store) Update(ctx context.Context, id string, in Input) (Campaign, error) {
	ctx, span := campaignTracer.Start(ctx, "campaigns.update")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.metrics.ObserveMutation(metricsCollection, "update", "not_found")
		return Campaign{}, ErrCampaignNotFound
	}
	previous := s.campaigns[idx].Status
	apply(&s.campaigns[idx], in, s.now())
	if !s.campaigns[idx].Status.Valid() {
		s.campaigns[idx].Status = previous
	}
	return s.campaigns[idx], s.commit(ctx, "update")
}

// Toggle flips an active campaign to paused, and a draft or paused one to
// active. Completed campaigns are returned unchanged.
func (s *Store) Toggle(ctx context.Context, id string) (Campaign, error) {
	ctx, span := campaignTracer.Start(ctx, "campaigns.toggle")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.metrics.ObserveMutation(metricsCollection, "toggle", "not_found")
		return Campaign{}, ErrCampaignNotFound
	}
	c := &s.campaigns[idx]
	switch c.Status {
	case StatusCompleted:
		return *c, nil
	case StatusActive:
		c.Status = StatusPaused
	default:
		c.Status = StatusActive
	}
	c.UpdatedAt = s.now()
	return *c, s.commit(ctx, "toggle")
}

// Delete removes the campaign with id if present and saves the result.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := campaignTracer.Start(ctx, "campaigns.delete")
	defer span.End()
	span.SetAttributes(attribute.String("campaign.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(id); idx >= 0 {
		s.campaigns = append(s.campaigns[:idx:idx], s.campaigns[idx+1:]...)
	}
	s.metrics.SetCollectionSize(metricsCollection, len(s.campaigns))
	return s.commit(ctx, "delete")
}

// GetByID returns the campaign with id.
func (s *Store) GetByID(id string) (Campaign, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Campaign{}, false
	}
	return s.campaigns[idx], true
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Campaign, len(s.campaigns))
	copy(out, s.campaigns)
	return out
}

func (s *Store) commit(ctx context.Context, op string) error {
	if err := s.save(ctx); err != nil {
		s.metrics.ObserveMutation(metricsCollection, op, "error")
		s.logger.Error("campaign operation failed", "op", op, "error", err)
		return fmt.Errorf("campaigns: %s: %w: %w", op, ErrNotPersisted, err)
	}
	s.metrics.ObserveMutation(metricsCollection, op, "ok")
	return nil
}

func (s *Store) save(ctx context.Context) error {
	start := time.Now()
	err := kvstore.SaveJSON(ctx, s.medium, s.key, s.campaigns)
	s.metrics.ObservePersist(metricsCollection, time.Since(start), err)
	return err
}

func (s *Store) indexOf(id string) int {
	for i := range s.campaigns {
		if s.campaigns[i].ID == id {
			return i
		}
	}
	return -1
}

func apply(c *Campaign, in Input, now time.Time) {
	c.Name = in.Name
	c.Description = in.Description
	c.Objective = in.Objective
	c.Status = in.Status
	c.LeadsCount = in.LeadsCount
	c.MessagesSent = in.MessagesSent
	c.ResponseRate = in.ResponseRate
	c.UpdatedAt = now
}

type seedCampaign struct {
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description"`
	Objective    string    `yaml:"objective"`
	Status       string    `yaml:"status"`
	LeadsCount   int       `yaml:"leadsCount"`
	MessagesSent int       `yaml:"messagesSent"`
	ResponseRate float64   `yaml:"responseRate"`
	CreatedAt    time.Time `yaml:"createdAt"`
}

func demoCampaigns(newID func() string) ([]Campaign, error) {
	var seeds []seedCampaign
	if err := yaml.Unmarshal(seedYAML, &seeds); err != nil {
		return nil, fmt.Errorf("campaigns: decode seed: %w", err)
	}
	out := make([]Campaign, 0, len(seeds))
	for _, sc := range seeds {
		status := Status(sc.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("campaigns: seed %q: %w", sc.Name, ErrInvalidStatus)
		}
		created := sc.CreatedAt.UTC()
		out = append(out, Campaign{
			ID:           newID(),
			Name:         sc.Name,
			Description:  sc.Description,
			Objective:    sc.Objective,
			Status:       status,
			LeadsCount:   sc.LeadsCount,
			MessagesSent: sc.MessagesSent,
			ResponseRate: sc.ResponseRate,
			CreatedAt:    created,
			UpdatedAt:    created,
		})
	}
	return out, nil
}
