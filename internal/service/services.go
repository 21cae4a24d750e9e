package service

import (
	"log/slog"
	"time"

	"github.com/kirinyoku/tixcore/internal/clock"
	"github.com/kirinyoku/tixcore/internal/metrics"
	"github.com/kirinyoku/tixcore/internal/repository"
	redisrepo "github.com/kirinyoku/tixcore/internal/repository/redis"
	"github.com/kirinyoku/tixcore/internal/service/category"
	"github.com/kirinyoku/tixcore/internal/service/event"
	"github.com/kirinyoku/tixcore/internal/service/query"
	"github.com/kirinyoku/tixcore/internal/service/section"
)

type Services struct {
	Categories *category.Service
	Events     *event.Service
	Sections   *section.Service
	Query      *query.Service
}

type Config struct {
	// Location defines the calendar day used for status derivation.
	Location *time.Location
	Query    query.Config
}

func NewServices(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Services {
	cfg.Query.Location = cfg.Location

	// The engines take interfaces; keep them nil rather than wrapping a nil pointer.
	var (
		evCache  event.Cache
		evPub    event.Publisher
		secCache section.Cache
		secPub   section.Publisher
	)
	if cache != nil {
		evCache, secCache = cache, cache
	}
	if pubsub != nil {
		evPub, secPub = pubsub, pubsub
	}

	return &Services{
		Categories: category.New(store, m, logger),
		Events:     event.New(store, evCache, evPub, clk, m, logger, event.Config{Location: cfg.Location}),
		Sections:   section.New(store, secCache, secPub, m, logger),
		Query:      query.New(store, cache, clk, cfg.Query),
	}
}
