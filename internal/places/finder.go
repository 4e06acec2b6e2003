package places

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jengzang/itinerary-planner-go/internal/cache"
	"github.com/jengzang/itinerary-planner-go/internal/models"
	"github.com/jengzang/itinerary-planner-go/internal/observability"
	"github.com/jengzang/itinerary-planner-go/internal/spatial"
)

// RadiusSteps are the search radii in meters, tried in order
var RadiusSteps = []int{1500, 3000, 4000}

const lookupName = "places"

// FoodQuery describes a restaurant lookup
type FoodQuery struct {
	Location       models.Location
	Cuisines       []string
	Required       []string
	Avoid          []string
	MaxAverageCost float64 // 0 = no ceiling
	RadiusSteps    []int   // nil uses RadiusSteps
}

// FinderConfig tunes the finder
type FinderConfig struct {
	Timeout    time.Duration
	CacheTTL   time.Duration
	RatePerSec float64
	Burst      int
}

// Finder looks up restaurants near a location and never fails: errors yield no results
type Finder struct {
	api     Searcher
	store   cache.Store
	cfg     FinderConfig
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewFinder creates a finder. store may be nil to disable caching.
func NewFinder(api Searcher, store cache.Store, cfg FinderConfig, log zerolog.Logger) *Finder {
	f := &Finder{api: api, store: store, cfg: cfg, log: log}
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return f
}

// FindNearbyFood returns restaurants matching the query, best first. A cuisine-biased
// text search is tried over each radius step before falling back to a plain nearby
// search. Results are filtered by avoid terms, required dietary terms and the cost
// ceiling, and ranked by rating, review count and distance.
func (f *Finder) FindNearbyFood(ctx context.Context, q FoodQuery) []models.Restaurant {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	steps := q.RadiusSteps
	if len(steps) == 0 {
		steps = RadiusSteps
	}

	query := strings.TrimSpace(strings.Join(append([]string{CuisineQuery(q.Cuisines)}, q.Required...), " "))
	if query != "" {
		for _, radius := range steps {
			found, err := f.textSearch(ctx, query, q.Location, radius)
			if err != nil {
				f.log.Warn().Err(err).Str("query", query).Int("radius", radius).Msg("text search failed")
				break
			}
			// The query already carried the required terms
			if out := f.filter(found, q, radius, nil); len(out) > 0 {
				return out
			}
		}
	}

	for _, radius := range steps {
		found, err := f.nearbySearch(ctx, q.Location, radius)
		if err != nil {
			f.log.Warn().Err(err).Int("radius", radius).Msg("nearby search failed")
			return nil
		}
		if out := f.filter(found, q, radius, q.Required); len(out) > 0 {
			return out
		}
	}
	return nil
}

func (f *Finder) filter(found []Place, q FoodQuery, radius int, required []string) []models.Restaurant {
	var out []models.Restaurant
	seen := make(map[string]bool)
	for _, p := range found {
		r := p.Restaurant()
		if seen[r.PlaceID] {
			continue
		}
		seen[r.PlaceID] = true

		r.DistanceM = q.Location.DistanceMeters(r.Location)
		if r.DistanceM > float64(radius) {
			continue
		}
		if ViolatesAvoid(r, q.Avoid) || !MatchesRequired(r, required) {
			continue
		}
		if q.MaxAverageCost > 0 && r.AverageCost() > q.MaxAverageCost {
			continue
		}
		out = append(out, r)
	}
	Rank(out)
	return out
}

// Rank orders restaurants by rating, then review count, then proximity
func Rank(rs []models.Restaurant) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Rating != rs[j].Rating {
			return rs[i].Rating > rs[j].Rating
		}
		if rs[i].ReviewCount != rs[j].ReviewCount {
			return rs[i].ReviewCount > rs[j].ReviewCount
		}
		return rs[i].DistanceM < rs[j].DistanceM
	})
}

func (f *Finder) textSearch(ctx context.Context, query string, loc models.Location, radius int) ([]Place, error) {
	key := fmt.Sprintf("food:text:%s:%d:%s", spatial.CellKey(loc.Lat, loc.Lng), radius, strings.ToLower(query))
	return f.cached(ctx, key, func() ([]Place, error) {
		return f.api.TextSearch(ctx, query, loc, radius)
	})
}

func (f *Finder) nearbySearch(ctx context.Context, loc models.Location, radius int) ([]Place, error) {
	key := fmt.Sprintf("food:nearby:%s:%d", spatial.CellKey(loc.Lat, loc.Lng), radius)
	return f.cached(ctx, key, func() ([]Place, error) {
		return f.api.NearbySearch(ctx, loc, radius, true)
	})
}

func (f *Finder) cached(ctx context.Context, key string, fetch func() ([]Place, error)) ([]Place, error) {
	if f.store != nil {
		var hit []Place
		if ok, err := cache.GetJSON(ctx, f.store, key, &hit); err == nil && ok {
			observability.RecordLookup(lookupName, observability.LookupHit)
			return hit, nil
		}
	}
	observability.RecordLookup(lookupName, observability.LookupMiss)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	found, err := fetch()
	if err != nil {
		observability.RecordLookup(lookupName, observability.LookupError)
		return nil, err
	}
	if f.store != nil {
		if err := cache.SetJSON(ctx, f.store, key, found, f.cfg.CacheTTL); err != nil {
			f.log.Warn().Err(err).Str("key", key).Msg("failed to cache places result")
		}
	}
	return found, nil
}
