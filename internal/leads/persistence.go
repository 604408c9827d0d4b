package leads

import (
	"context"
	"errors"

	"github.com/wolfman30/prospector/internal/kvstore"
	"github.com/wolfman30/prospector/pkg/logging"
)

// DefaultStorageKey is the fixed key the whole lead collection is stored under.
const DefaultStorageKey = "prospector-linkedin-leads"

// Persistence mirrors the lead collection into a storage medium as one JSON array.
type Persistence struct {
	medium kvstore.Medium
	key    string
	logger *logging.Logger
}

// NewPersistence creates an adapter writing under key (DefaultStorageKey when empty).
func NewPersistence(medium kvstore.Medium, key string, logger *logging.Logger) *Persistence {
	if medium == nil {
		panic("leads: storage medium required")
	}
	if key == "" {
		key = DefaultStorageKey
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Persistence{medium: medium, key: key, logger: logger}
}

// Key returns the storage key.
func (p *Persistence) Key() string { return p.key }

// storedLead reads the status as a raw string so an unknown value costs only
// the status, not the record. The outer field shadows Lead.Status.
type storedLead struct {
	Lead
	Status string `json:"status"`
}

// Load returns the stored collection. It never fails: a missing, unreadable or
// non-array blob degrades to an empty collection and is logged. Records that
// cannot be decoded, or that have an empty or repeated id, are dropped with a
// warning. Tags are deduplicated and an empty or unknown status becomes new.
func (p *Persistence) Load(ctx context.Context) []Lead {
	items, skipped, err := kvstore.LoadJSON[storedLead](ctx, p.medium, p.key)
	if err != nil {
		var malformed *kvstore.MalformedError
		if errors.As(err, &malformed) {
			p.logger.Warn("stored leads are malformed, starting empty", "key", p.key, "error", err)
		} else {
			p.logger.Error("failed to read stored leads", "key", p.key, "error", err)
		}
		return []Lead{}
	}
	for _, se := range skipped {
		p.logger.Warn("dropping undecodable stored lead", "key", p.key, "index", se.Index, "error", se.Err)
	}
	return p.normalize(items)
}

func (p *Persistence) normalize(items []storedLead) []Lead {
	leads := make([]Lead, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		lead := item.Lead
		if lead.ID == "" {
			p.logger.Warn("dropping stored lead without id", "key", p.key, "name", lead.Name)
			continue
		}
		if _, dup := seen[lead.ID]; dup {
			p.logger.Warn("dropping stored lead with duplicate id", "key", p.key, "lead_id", lead.ID)
			continue
		}
		seen[lead.ID] = struct{}{}

		status, err := ParseStatus(item.Status)
		if err != nil {
			p.logger.Warn("stored lead has invalid status, using new", "key", p.key, "lead_id", lead.ID, "status", item.Status)
			status = StatusNew
		}
		lead.Status = status
		lead.Tags = UniqueTags(lead.Tags)
		leads = append(leads, lead)
	}
	return leads
}

// Save writes the whole collection in a single medium write. Failures are
// returned as-is for the caller to surface; there is no retry.
func (p *Persistence) Save(ctx context.Context, leads []Lead) error {
	err := kvstore.SaveJSON(ctx, p.medium, p.key, leads)
	if err != nil {
		p.logger.Error("failed to save leads", "key", p.key, "count", len(leads), "error", err)
		return err
	}
	p.logger.Debug("leads saved", "key", p.key, "count", len(leads))
	return nil
}

// Clear removes the stored collection.
func (p *Persistence) Clear(ctx context.Context) error {
	return p.medium.Delete(ctx, p.key)
}
