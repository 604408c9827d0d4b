package bootstrap

import (
	"github.com/wolfman30/prospector/internal/campaigns"
	appconfig "github.com/wolfman30/prospector/internal/config"
	"github.com/wolfman30/prospector/internal/dashboard"
	"github.com/wolfman30/prospector/internal/kvstore"
	"github.com/wolfman30/prospector/internal/leads"
	"github.com/wolfman30/prospector/internal/notify"
	"github.com/wolfman30/prospector/internal/observability/metrics"
	"github.com/wolfman30/prospector/pkg/logging"
)

// BuildSession wires the lead store, campaign store and notification channel
// over medium into a dashboard session. Call Start on the result.
func BuildSession(cfg *appconfig.Config, medium kvstore.Medium, m *metrics.StoreMetrics, logger *logging.Logger) *dashboard.Session {
	if logger == nil {
		logger = logging.Default()
	}

	leadStore := leads.NewStore(
		leads.NewPersistence(medium, cfg.LeadsStorageKey, logger),
		leads.WithLogger(logger.With("component", "leads")),
		leads.WithMetrics(m),
		leads.WithSeed(cfg.SeedDemoData),
	)
	campaignStore := campaigns.NewStore(medium, cfg.CampaignsKey,
		campaigns.WithLogger(logger.With("component", "campaigns")),
		campaigns.WithMetrics(m),
		campaigns.WithSeed(cfg.SeedDemoData),
	)
	channel := notify.NewChannel(
		notify.WithDefaultDuration(cfg.NotificationTTL),
		notify.WithLogger(logger.With("component", "notify")),
		notify.WithMetrics(m),
	)

	return dashboard.NewSession(leadStore, campaignStore, channel,
		dashboard.WithLogger(logger),
		dashboard.WithMetrics(m),
		dashboard.WithPhoneRegion(cfg.PhoneDefaultRegion),
	)
}
