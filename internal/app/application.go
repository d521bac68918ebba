package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/localpulse/platform/internal/app/domain/social"
	"github.com/localpulse/platform/internal/app/events"
	"github.com/localpulse/platform/internal/app/places"
	"github.com/localpulse/platform/internal/app/services/assist"
	igsvc "github.com/localpulse/platform/internal/app/services/instagram"
	"github.com/localpulse/platform/internal/app/services/locations"
	"github.com/localpulse/platform/internal/app/services/rankings"
	"github.com/localpulse/platform/internal/app/services/reviews"
	socialsvc "github.com/localpulse/platform/internal/app/services/social"
	"github.com/localpulse/platform/internal/app/services/tenants"
	"github.com/localpulse/platform/internal/app/storage"
	"github.com/localpulse/platform/internal/app/storage/memory"
	"github.com/localpulse/platform/internal/app/system"
	"github.com/localpulse/platform/internal/config"
	"github.com/localpulse/platform/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Tenants   storage.TenantStore
	Locations storage.LocationStore
	Reviews   storage.ReviewStore
	Rankings  storage.RankSnapshotStore
	Social    storage.SocialPostStore
	Instagram storage.InstagramStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Tenants   *tenants.Service
	Locations *locations.Service
	Reviews   *reviews.Service
	Rankings  *rankings.Service
	Social    *socialsvc.Service
	Instagram *igsvc.Service
	Assist    *assist.Service
	Hub       *events.Hub
}

// New builds a fully initialised application with the provided stores.
// External clients are wired from the configuration; an absent credential
// disables the dependent feature with a warning instead of failing startup.
func New(stores Stores, cfg config.Config, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Tenants == nil {
		stores.Tenants = mem
	}
	if stores.Locations == nil {
		stores.Locations = mem
	}
	if stores.Reviews == nil {
		stores.Reviews = mem
	}
	if stores.Rankings == nil {
		stores.Rankings = mem
	}
	if stores.Social == nil {
		stores.Social = mem
	}
	if stores.Instagram == nil {
		stores.Instagram = mem
	}

	manager := system.NewManager()
	hub := events.NewHub()
	httpClient := &http.Client{Timeout: 15 * time.Second}

	var placeCache places.Cache
	if cfg.RedisAddr != "" {
		placeCache = places.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	var searcher places.Searcher
	if cfg.GooglePlacesAPIKey != "" {
		client, err := places.NewClient(httpClient, "", cfg.GooglePlacesAPIKey, placeCache, log)
		if err != nil {
			log.WithError(err).Warn("configure places client")
		} else {
			searcher = client
		}
	} else {
		log.Warn("GOOGLE_PLACES_API_KEY not set; place search disabled")
	}

	var gbpClient *reviews.HTTPGBPClient
	if cfg.GBPAccessToken != "" {
		client, err := reviews.NewHTTPGBPClient(httpClient, "", cfg.GBPAccessToken, log)
		if err != nil {
			log.WithError(err).Warn("configure gbp client")
		} else {
			gbpClient = client
		}
	} else {
		log.Warn("GBP_ACCESS_TOKEN not set; review sync and replies disabled")
	}

	var graph igsvc.GraphClient
	if cfg.InstagramAppID != "" && cfg.InstagramAppSecret != "" {
		client, err := igsvc.NewHTTPGraphClient(httpClient, "", cfg.InstagramAppID, cfg.InstagramAppSecret, cfg.InstagramRedirectURI, log)
		if err != nil {
			log.WithError(err).Warn("configure instagram client")
		} else {
			graph = client
		}
	} else {
		log.Warn("IG_APP_ID/IG_APP_SECRET not set; instagram integration disabled")
	}

	var scraper rankings.Scraper
	if cfg.ApifyToken != "" {
		client, err := rankings.NewApifyClient(nil, "", cfg.ApifyToken, cfg.ApifyActor, log)
		if err != nil {
			log.WithError(err).Warn("configure apify client")
		} else {
			scraper = client
		}
	}

	var completer assist.Completer
	if cfg.OpenAIAPIKey != "" {
		client, err := assist.NewOpenAIClient(nil, "", cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
		if err != nil {
			log.WithError(err).Warn("configure openai client")
		} else {
			completer = client
		}
	} else {
		log.Warn("OPENAI_API_KEY not set; assist disabled")
	}

	tenantService := tenants.New(stores.Tenants, log)
	locationService := locations.New(stores.Locations, searcher, log)
	var gbp reviews.GBPClient
	if gbpClient != nil {
		gbp = gbpClient
	}
	reviewService := reviews.New(stores.Reviews, stores.Locations, gbp, hub, log)
	rankingService := rankings.New(stores.Rankings, stores.Locations, searcher, scraper, log)
	instagramService := igsvc.New(stores.Instagram, graph, log)
	assistService := assist.New(stores.Tenants, stores.Reviews, stores.Locations, completer, log)

	channels := config.LoadChannelsConfigOrDefault(cfg.ChannelsConfigPath)
	publishers := make(map[string]socialsvc.Publisher)
	if channels.Enabled(social.ChannelGBP) && gbpClient != nil {
		publishers[social.ChannelGBP] = socialsvc.NewGBPPublisher(stores.Locations, gbpClient, log)
	}
	if channels.Enabled(social.ChannelInstagram) && graph != nil {
		publishers[social.ChannelInstagram] = igsvc.NewMediaPublisher(stores.Instagram, graph, log)
	}
	socialService := socialsvc.New(stores.Social, publishers, hub, log)

	if cfg.EnableBackgroundRuns {
		runners := []system.Service{
			socialsvc.NewScheduler(socialService, cfg.SchedulerInterval, log),
		}
		if gbp != nil {
			runners = append(runners, reviews.NewSyncPoller(reviewService, cfg.ReviewSyncInterval, log))
		} else {
			log.Warn("review sync poller disabled without gbp client")
		}
		if graph != nil {
			runners = append(runners, igsvc.NewTokenRefresher(instagramService, cfg.TokenRefreshInterval, log))
		}
		for _, svc := range runners {
			if err := manager.Register(svc); err != nil {
				return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
			}
		}
	}

	return &Application{
		manager:   manager,
		log:       log,
		Tenants:   tenantService,
		Locations: locationService,
		Reviews:   reviewService,
		Rankings:  rankingService,
		Social:    socialService,
		Instagram: instagramService,
		Assist:    assistService,
		Hub:       hub,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
