package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/itinerary-planner-go/internal/cache"
	"github.com/jengzang/itinerary-planner-go/internal/models"
)

var center = models.Location{Lat: 43.6532, Lng: -79.3832}

func place(id, name string, rating float64, reviews int, dLat float64, types ...string) Place {
	p := Place{PlaceID: id, Name: name, Rating: rating, UserRatingsTotal: reviews, Types: types}
	p.Geometry.Location.Lat = center.Lat + dLat
	p.Geometry.Location.Lng = center.Lng
	return p
}

type fakeSearcher struct {
	text        map[int][]Place
	nearby      map[int][]Place
	textErr     error
	textCalls   int
	nearbyCalls int
	lastQuery   string
}

func (f *fakeSearcher) TextSearch(ctx context.Context, query string, loc models.Location, radiusM int) ([]Place, error) {
	f.textCalls++
	f.lastQuery = query
	if f.textErr != nil {
		return nil, f.textErr
	}
	return f.text[radiusM], nil
}

func (f *fakeSearcher) NearbySearch(ctx context.Context, loc models.Location, radiusM int, openNow bool) ([]Place, error) {
	f.nearbyCalls++
	return f.nearby[radiusM], nil
}

func newFinder(api Searcher) *Finder {
	return NewFinder(api, cache.NewMemoryStore(nil), FinderConfig{Timeout: time.Second, CacheTTL: time.Hour}, zerolog.Nop())
}

func TestCuisineQuery(t *testing.T) {
	assert.Equal(t, "japanese sushi ramen", CuisineQuery([]string{"Japanese"}))
	assert.Equal(t, "turkish doner kebab ethiopian", CuisineQuery([]string{"turkish", " ethiopian ", ""}))
	assert.Equal(t, "", CuisineQuery(nil))
}

func TestViolatesAvoid(t *testing.T) {
	pub := models.Restaurant{Name: "The Queen's Pub"}
	bbq := models.Restaurant{Name: "Smoke House", Types: []string{"restaurant"}, Vicinity: "12 Pork Lane"}
	cafe := models.Restaurant{Name: "Green Cafe"}

	assert.True(t, ViolatesAvoid(pub, []string{"alcohol_forward"}))
	assert.True(t, ViolatesAvoid(bbq, []string{"pork"}))
	assert.False(t, ViolatesAvoid(cafe, []string{"pork", "alcohol_forward"}))
	assert.True(t, ViolatesAvoid(cafe, []string{"green"}))
}

func TestDeriveDietTerms(t *testing.T) {
	req, avoid := DeriveDietTerms(models.Dietary{Halal: true, NutAllergy: true, Avoid: []string{"Pork", "shellfish"}})
	assert.Equal(t, []string{"halal"}, req)
	assert.Equal(t, []string{"pork", "alcohol_forward", "peanut", "tree nut", "nut", "shellfish"}, avoid)

	req, avoid = DeriveDietTerms(models.Dietary{Vegan: true, Vegetarian: true})
	assert.Equal(t, []string{"vegetarian", "vegan"}, req)
	assert.Empty(t, avoid)
}

func TestRank(t *testing.T) {
	rs := []models.Restaurant{
		{PlaceID: "a", Rating: 4.2, ReviewCount: 900, DistanceM: 100},
		{PlaceID: "b", Rating: 4.6, ReviewCount: 10, DistanceM: 900},
		{PlaceID: "c", Rating: 4.6, ReviewCount: 10, DistanceM: 300},
		{PlaceID: "d", Rating: 4.6, ReviewCount: 50, DistanceM: 1200},
	}
	Rank(rs)
	ids := []string{rs[0].PlaceID, rs[1].PlaceID, rs[2].PlaceID, rs[3].PlaceID}
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids)
}

func TestFindNearbyFoodWidensRadius(t *testing.T) {
	api := &fakeSearcher{text: map[int][]Place{
		1500: {},
		3000: {place("far", "Sushi Far", 4.5, 100, 0.02)},
		4000: {place("near", "Sushi Near", 4.9, 100, 0.005)},
	}}
	f := newFinder(api)

	got := f.FindNearbyFood(context.Background(), FoodQuery{Location: center, Cuisines: []string{"japanese"}})
	// "far" is ~2.2km away: outside 1500, inside 3000
	require.Len(t, got, 1)
	assert.Equal(t, "far", got[0].PlaceID)
	assert.InDelta(t, 2224, got[0].DistanceM, 10)
	assert.Equal(t, 2, api.textCalls)
	assert.Equal(t, "japanese sushi ramen", api.lastQuery)
}

func TestFindNearbyFoodFiltersAndFallsBack(t *testing.T) {
	api := &fakeSearcher{
		text: map[int][]Place{
			1500: {place("bar", "Halal Wine Bar", 4.9, 10, 0.001)},
		},
		nearby: map[int][]Place{
			1500: {
				place("plain", "Corner Diner", 4.8, 400, 0.001),
				place("halal", "Halal Grill", 4.1, 80, 0.002),
			},
		},
	}
	f := newFinder(api)
	req, avoid := DeriveDietTerms(models.Dietary{Halal: true})

	got := f.FindNearbyFood(context.Background(), FoodQuery{Location: center, Cuisines: []string{"turkish"}, Required: req, Avoid: avoid})
	require.Len(t, got, 1)
	assert.Equal(t, "halal", got[0].PlaceID)
	assert.Equal(t, "turkish doner kebab halal", api.lastQuery)
	assert.Equal(t, 3, api.textCalls)
	assert.Equal(t, 1, api.nearbyCalls)
}

func TestFindNearbyFoodCostCeiling(t *testing.T) {
	cheap, pricey := 1, 4
	a := place("cheap", "Noodle Bar", 4.0, 10, 0.001)
	a.PriceLevel = &cheap
	b := place("pricey", "Steakhouse", 4.9, 10, 0.001)
	b.PriceLevel = &pricey
	api := &fakeSearcher{nearby: map[int][]Place{1500: {a, b}}}

	got := newFinder(api).FindNearbyFood(context.Background(), FoodQuery{Location: center, MaxAverageCost: 40})
	require.Len(t, got, 1)
	assert.Equal(t, "cheap", got[0].PlaceID)
}

func TestFindNearbyFoodFailsEmpty(t *testing.T) {
	api := &fakeSearcher{textErr: errors.New("quota exceeded")}
	got := newFinder(api).FindNearbyFood(context.Background(), FoodQuery{Location: center, Cuisines: []string{"italian"}})
	assert.Empty(t, got)
	assert.Equal(t, 1, api.textCalls)
}

func TestFindNearbyFoodCaches(t *testing.T) {
	api := &fakeSearcher{nearby: map[int][]Place{1500: {place("a", "Diner", 4.0, 10, 0.001)}}}
	f := newFinder(api)
	ctx := context.Background()

	f.FindNearbyFood(ctx, FoodQuery{Location: center})
	f.FindNearbyFood(ctx, FoodQuery{Location: center})
	assert.Equal(t, 1, api.nearbyCalls)
}

func TestGoogleClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("key"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/maps/api/place/textsearch/json":
			assert.Equal(t, "sushi restaurant", q.Get("query"))
			assert.Equal(t, "43.653200,-79.383200", q.Get("location"))
			assert.Equal(t, "1500", q.Get("radius"))
			_, _ = w.Write([]byte(`{"status":"OK","results":[{"place_id":"p1","name":"Sushi One","formatted_address":"1 King St","rating":4.5,"user_ratings_total":12,"price_level":2,"types":["restaurant"],"geometry":{"location":{"lat":43.65,"lng":-79.38}}}]}`))
		case "/maps/api/place/nearbysearch/json":
			assert.Equal(t, "restaurant", q.Get("type"))
			assert.Equal(t, "true", q.Get("opennow"))
			_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","error_message":"slow down","results":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewGoogleClient(srv.URL, "secret", time.Second)
	ctx := context.Background()

	found, err := c.TextSearch(ctx, "sushi", center, 1500)
	require.NoError(t, err)
	require.Len(t, found, 1)
	r := found[0].Restaurant()
	assert.Equal(t, "p1", r.PlaceID)
	assert.Equal(t, "1 King St", r.Vicinity)
	assert.Equal(t, 2, r.PriceLevel)

	_, err = c.NearbySearch(ctx, center, 1500, true)
	assert.ErrorContains(t, err, "OVER_QUERY_LIMIT")

	_, err = NewGoogleClient(srv.URL, "", time.Second).TextSearch(ctx, "sushi", center, 1500)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
