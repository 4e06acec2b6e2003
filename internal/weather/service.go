package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/jengzang/itinerary-planner-go/internal/cache"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/observability"
	"github.com/jengzang/itinerary-planner-go/internal/spatial"
)

const (
	hourlyLayout = "2006-01-02T15:04"
	autoTimezone = "auto"
	lookupName   = "weather"
)

// Config tunes the weather service
type Config struct {
	ForecastTTL time.Duration // forecast entries expire after this
	Timeout     time.Duration // per lookup, covering timezone and forecast
	RatePerSec  float64       // outbound request rate; <= 0 disables throttling
	Burst       int
}

// DefaultConfig returns the settings used when none are configured
func DefaultConfig() Config {
	return Config{ForecastTTL: 30 * time.Minute, Timeout: 3 * time.Second, RatePerSec: 5, Burst: 5}
}

// Service answers IsWeatherSuitable with cached, throttled and fail-open forecast lookups
type Service struct {
	provider Provider
	store    cache.Store
	cfg      Config
	limiter  *rate.Limiter
	group    singleflight.Group
	log      zerolog.Logger
}

// NewService creates a weather service backed by provider and store
func NewService(provider Provider, store cache.Store, cfg Config, log zerolog.Logger) *Service {
	s := &Service{provider: provider, store: store, cfg: cfg, log: log}
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return s
}

// IsWeatherSuitable reports whether no forecast hour during the activity matches
// one of its weather blockers. Activities without blockers never trigger a lookup.
// Any lookup failure counts as suitable.
func (s *Service) IsWeatherSuitable(ctx context.Context, act *models.Activity, start time.Time) bool {
	if len(act.WeatherBlockers) == 0 {
		return true
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	end := start.Add(act.Duration())
	forecast, err := s.lookup(ctx, act, start, end)
	if err != nil {
		observability.RecordLookup(lookupName, observability.LookupError)
		s.log.Warn().Err(err).Str("activity_id", act.ID).Time("start", start).Msg("weather lookup failed, assuming suitable")
		return true
	}

	blocked := make(map[string]bool, len(act.WeatherBlockers))
	for _, b := range act.WeatherBlockers {
		blocked[strings.ToLower(b)] = true
	}

	for i, raw := range forecast.Times {
		t, err := time.ParseInLocation(hourlyLayout, raw, start.Location())
		if err != nil || t.Before(start) || t.After(end) {
			continue
		}
		if name := Describe(forecast.Codes[i]); blocked[strings.ToLower(name)] {
			s.log.Debug().Str("activity_id", act.ID).Str("weather", name).Time("at", t).Msg("weather blocks activity")
			return false
		}
	}
	return true
}

func (s *Service) lookup(ctx context.Context, act *models.Activity, start, end time.Time) (*Forecast, error) {
	tz, err := s.timezone(ctx, act.City)
	if err != nil {
		return nil, err
	}

	req := ForecastRequest{
		Lat:       act.Location.Lat,
		Lng:       act.Location.Lng,
		StartDate: start.Format(models.DateLayout),
		EndDate:   end.Format(models.DateLayout),
		Timezone:  tz,
	}
	key := ForecastKey(req)

	var cached Forecast
	if ok, err := cache.GetJSON(ctx, s.store, key, &cached); err == nil && ok {
		observability.RecordLookup(lookupName, observability.LookupHit)
		return &cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		observability.RecordLookup(lookupName, observability.LookupMiss)
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		f, err := s.provider.Hourly(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, s.store, key, f, s.cfg.ForecastTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to cache forecast")
		}
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Forecast), nil
}

// timezone resolves and caches a city's timezone. Timezones never change, so
// entries do not expire. Activities without a city let the API infer it.
func (s *Service) timezone(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return autoTimezone, nil
	}
	key := "tz:" + strings.ToLower(city)

	if raw, ok, err := s.store.Get(ctx, key); err == nil && ok {
		return string(raw), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if err := s.wait(ctx); err != nil {
			return "", err
		}
		tz, err := s.provider.Timezone(ctx, city)
		if err != nil {
			return "", err
		}
		if err := s.store.Set(ctx, key, []byte(tz), cache.NoExpiry); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to cache timezone")
		}
		return tz, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve timezone for %s: %w", city, err)
	}
	return v.(string), nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// ForecastKey builds the cache key for a forecast request. Coordinates are
// bucketed into ~120m geohash cells so nearby venues share an entry.
func ForecastKey(req ForecastRequest) string {
	return fmt.Sprintf("wx:%s:%s:%s:%s", spatial.CellKey(req.Lat, req.Lng), req.StartDate, req.EndDate, req.Timezone)
}
