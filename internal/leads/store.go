package leads

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/prospector/internal/observability/metrics"
	"github.com/wolfman30/prospector/pkg/logging"
)

var storeTracer = otel.Tracer("prospector/leads")

const (
	metricsCollection = "leads"
	maxIDAttempts     = 8
)

// ErrIDExhausted is returned when the id generator keeps producing ids already in use.
var ErrIDExhausted = errors.New("leads: could not generate a unique id")

// Store is the sole owner of the lead collection. Every mutation is followed
// by a save of the whole collection. A failed save keeps the in-memory change
// and is reported as ErrNotPersisted.
type Store struct {
	mu          sync.Mutex
	leads       []Lead
	persistence *Persistence
	logger      *logging.Logger
	metrics     *metrics.StoreMetrics
	now         func() time.Time
	newID       func() string
	seed        bool
	initialized bool
	lastErr     string
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records store activity.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithSeed controls whether Init writes the demonstration leads into empty storage.
func WithSeed(enabled bool) Option {
	return func(s *Store) { s.seed = enabled }
}

// NewStore creates a store backed by persistence. Call Init before use.
func NewStore(persistence *Persistence, opts ...Option) *Store {
	if persistence == nil {
		panic("leads: persistence required")
	}
	s := &Store{
		leads:       []Lead{},
		persistence: persistence,
		logger:      logging.Default(),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.New().String() },
		seed:        true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the stored collection. When it is empty and seeding is enabled,
// the demonstration leads are stored immediately. Later calls are no-ops.
func (s *Store) Init(ctx context.Context) error {
	ctx, span := storeTracer.Start(ctx, "leads.init")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.lastErr = ""

	s.leads = s.persistence.Load(ctx)
	if len(s.leads) > 0 || !s.seed {
		s.logger.Info("leads loaded", "count", len(s.leads), "key", s.persistence.Key())
		s.metrics.SetCollectionSize(metricsCollection, len(s.leads))
		return nil
	}

	seeded, err := DemoLeads(s.now(), s.newID)
	if err != nil {
		s.fail(span, "seed", err)
		return err
	}
	s.leads = seeded
	s.metrics.SetCollectionSize(metricsCollection, len(s.leads))
	if err := s.save(ctx); err != nil {
		s.fail(span, "seed", err)
		return notPersisted("seed", err)
	}
	s.logger.Info("seeded demonstration leads", "count", len(s.leads), "key", s.persistence.Key())
	return nil
}

// Add appends a new lead built from in. The input is trusted; validate it first.
// On a failed save the lead is returned together with an ErrNotPersisted error.
func (s *Store) Add(ctx context.Context, in LeadInput) (Lead, error) {
	ctx, span := storeTracer.Start(ctx, "leads.add")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""

	id, err := s.uniqueID()
	if err != nil {
		s.fail(span, "add", err)
		return Lead{}, err
	}
	status := in.Status
	if !status.Valid() {
		status = StatusNew
	}
	now := s.now()
	lead := Lead{
		ID:          id,
		Name:        in.Name,
		Company:     in.Company,
		Position:    in.Position,
		LinkedInURL: in.LinkedInURL,
		Email:       in.Email,
		Phone:       in.Phone,
		Notes:       in.Notes,
		Status:      status,
		Tags:        UniqueTags(in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	span.SetAttributes(attribute.String("lead.id", lead.ID))

	s.leads = append(s.leads, lead)
	s.metrics.SetCollectionSize(metricsCollection, len(s.leads))
	if err := s.save(ctx); err != nil {
		s.fail(span, "add", err)
		return lead.Clone(), notPersisted("add", err)
	}
	s.metrics.ObserveMutation(metricsCollection, "add", "ok")
	s.logger.Info("lead added", "lead_id", lead.ID, "status", lead.Status)
	return lead.Clone(), nil
}

// Update merges patch over the lead with id. Moving into contacted or
// responded from another status stamps lastContactDate.
func (s *Store) Update(ctx context.Context, id string, patch LeadPatch) (Lead, error) {
	ctx, span := storeTracer.Start(ctx, "leads.update")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""

	idx := s.indexOf(id)
	if idx < 0 {
		s.lastErr = ErrLeadNotFound.Error()
		s.metrics.ObserveMutation(metricsCollection, "update", "not_found")
		span.RecordError(ErrLeadNotFound)
		return Lead{}, ErrLeadNotFound
	}

	now := s.now()
	lead := s.leads[idx].Clone()
	previous := lead.Status
	patch.apply(&lead)
	lead.UpdatedAt = now
	if lead.Status != previous && lead.Status.triggersContact() {
		ts := now
		lead.LastContactDate = &ts
	}
	s.leads[idx] = lead

	if err := s.save(ctx); err != nil {
		s.fail(span, "update", err)
		return lead.Clone(), notPersisted("update", err)
	}
	s.metrics.ObserveMutation(metricsCollection, "update", "ok")
	s.logger.Info("lead updated", "lead_id", id, "status", lead.Status)
	return lead.Clone(), nil
}

// Delete removes the lead with id if present. The resulting collection is saved
// either way; only a failed save is an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := storeTracer.Start(ctx, "leads.delete")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""

	if idx := s.indexOf(id); idx >= 0 {
		s.leads = append(s.leads[:idx:idx], s.leads[idx+1:]...)
	}
	s.metrics.SetCollectionSize(metricsCollection, len(s.leads))
	if err := s.save(ctx); err != nil {
		s.fail(span, "delete", err)
		return notPersisted("delete", err)
	}
	s.metrics.ObserveMutation(metricsCollection, "delete", "ok")
	s.logger.Info("lead deleted", "lead_id", id)
	return nil
}

// GetByID returns a copy of the lead with id.
func (s *Store) GetByID(id string) (Lead, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Lead{}, false
	}
	return s.leads[idx].Clone(), true
}

// List returns a deep copy of the collection in insertion order.
func (s *Store) List() []Lead {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Lead, len(s.leads))
	for i, lead := range s.leads {
		out[i] = lead.Clone()
	}
	return out
}

// Len returns the number of leads.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads)
}

// LastError returns the message of the last failed operation, or "" if the
// most recent operation succeeded.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) save(ctx context.Context) error {
	start := time.Now()
	err := s.persistence.Save(ctx, s.leads)
	s.metrics.ObservePersist(metricsCollection, time.Since(start), err)
	return err
}

func (s *Store) fail(span trace.Span, op string, err error) {
	span.RecordError(err)
	s.lastErr = err.Error()
	s.metrics.ObserveMutation(metricsCollection, op, "error")
	s.logger.Error("lead operation failed", "op", op, "error", err)
}

func (s *Store) indexOf(id string) int {
	for i := range s.leads {
		if s.leads[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}
