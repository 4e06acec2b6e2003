// Package app wires configuration, storage, lookups and the planner into a
// ready planning service.
package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jengzang/itinerary-planner-go/internal/cache"
	"github.com/jengzang/itinerary-planner-go/internal/config"
	"github.com/jengzang/itinerary-planner-go/internal/constraints"
	"github.com/jengzang/itinerary-planner-go/internal/database"
	"github.com/jengzang/itinerary-planner-go/internal/logger"
	"github.com/jengzang/itinerary-planner-go/internal/places"
	"github.com/jengzang/itinerary-planner-go/internal/planner"
	"github.com/jengzang/itinerary-planner-go/internal/repository"
	"github.com/jengzang/itinerary-planner-go/internal/service"
	"github.com/jengzang/itinerary-planner-go/internal/weather"
)

const serviceName = "itinerary-planner"

// App holds the long-lived dependencies
type App struct {
	Config     *config.Config
	Log        zerolog.Logger
	DB         *sql.DB
	Cache      cache.Store
	Clients    *repository.ClientRepository
	Activities *repository.ActivityRepository
	Planning   *service.PlanningService

	redis *redis.Client
}

// New builds every dependency from cfg. A Redis address switches the lookup
// cache from memory to Redis; without a places API key meals fall back to
// provided food activities and meal breaks.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.New(serviceName, cfg.LogLevel)
	log.Info().
		Str("db_path", cfg.DBPath).
		Bool("redis", cfg.RedisAddr != "").
		Bool("places", cfg.PlacesAPIKey != "").
		Int("plan_concurrency", cfg.PlanConcurrency).
		Msg("configuration loaded")

	db, err := database.Open(database.Config{Path: cfg.DBPath}, log)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log, DB: db}

	if cfg.RedisAddr != "" {
		rc, err := cache.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.redis = rc
		a.Cache = cache.NewRedisStore(rc, cfg.RedisPrefix)
	} else {
		a.Cache = cache.NewMemoryStore(nil)
	}

	var weatherChecker constraints.WeatherChecker
	if cfg.UseWeather {
		provider := weather.NewOpenMeteo(cfg.WeatherBaseURL, cfg.GeocodingBaseURL, cfg.LookupTimeout)
		weatherChecker = weather.NewService(provider, a.Cache, cfg.Weather(), log.With().Str("component", "weather").Logger())
	}

	var food planner.FoodFinder
	if cfg.PlacesAPIKey != "" {
		api := places.NewGoogleClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, cfg.LookupTimeout)
		food = places.NewFinder(api, a.Cache, cfg.Places(), log.With().Str("component", "places").Logger())
	}

	day := planner.NewDayPlanner(cfg.Planner(), weatherChecker, food, log.With().Str("component", "planner").Logger())

	a.Clients = repository.NewClientRepository(db)
	a.Activities = repository.NewActivityRepository(db)
	a.Planning = service.NewPlanningService(
		a.Clients,
		a.Activities,
		repository.NewPlanRepository(db),
		planner.NewTripPlanner(day),
		cfg.PlanConcurrency,
		log.With().Str("component", "service").Logger(),
	)
	return a, nil
}

// Close releases the database and cache connections
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
