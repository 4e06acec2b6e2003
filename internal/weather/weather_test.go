package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/itinerary-planner-go/internal/cache"
	"github.com/jengzang/itinerary-planner-go/internal/models"
)

type fakeProvider struct {
	mu            sync.Mutex
	forecast      *Forecast
	err           error
	hourlyCalls   int
	timezoneCalls int
	lastReq       ForecastRequest
}

func (p *fakeProvider) Timezone(ctx context.Context, city string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timezoneCalls++
	return "America/Toronto", nil
}

func (p *fakeProvider) Hourly(ctx context.Context, req ForecastRequest) (*Forecast, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hourlyCalls++
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return p.forecast, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

var day = time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)

func outdoor() *models.Activity {
	return &models.Activity{
		ID:              "island-picnic",
		City:            "Toronto",
		Location:        models.Location{Lat: 43.6205, Lng: -79.3786},
		DurationMin:     120,
		WeatherBlockers: []string{"Heavy rain", "Thunderstorm"},
	}
}

func rainyAfternoon() *Forecast {
	return &Forecast{
		Times: []string{"2025-08-03T10:00", "2025-08-03T11:00", "2025-08-03T12:00", "2025-08-03T13:00", "2025-08-03T14:00", "2025-08-03T15:00"},
		Codes: []int{0, 1, 2, 3, 65, 95},
	}
}

func newTestService(p Provider, clock *fakeClock) *Service {
	cfg := Config{ForecastTTL: 30 * time.Minute, Timeout: time.Second}
	return NewService(p, cache.NewMemoryStore(clock.Now), cfg, zerolog.Nop())
}

func TestIsWeatherSuitable(t *testing.T) {
	p := &fakeProvider{forecast: rainyAfternoon()}
	s := newTestService(p, &fakeClock{t: day})
	ctx := context.Background()

	assert.True(t, s.IsWeatherSuitable(ctx, outdoor(), models.At(day, 10*60)))
	assert.False(t, s.IsWeatherSuitable(ctx, outdoor(), models.At(day, 12*60)))
	assert.False(t, s.IsWeatherSuitable(ctx, outdoor(), models.At(day, 14*60)))
	assert.Equal(t, "America/Toronto", p.lastReq.Timezone)
	assert.Equal(t, "2025-08-03", p.lastReq.StartDate)
}

func TestNoBlockersSkipsLookup(t *testing.T) {
	p := &fakeProvider{forecast: rainyAfternoon()}
	s := newTestService(p, &fakeClock{t: day})
	act := outdoor()
	act.WeatherBlockers = nil

	assert.True(t, s.IsWeatherSuitable(context.Background(), act, models.At(day, 14*60)))
	assert.Equal(t, 0, p.hourlyCalls)
	assert.Equal(t, 0, p.timezoneCalls)
}

func TestFailOpen(t *testing.T) {
	p := &fakeProvider{err: errors.New("connection refused")}
	s := newTestService(p, &fakeClock{t: day})
	assert.True(t, s.IsWeatherSuitable(context.Background(), outdoor(), models.At(day, 14*60)))
}

func TestForecastCachedUntilTTL(t *testing.T) {
	p := &fakeProvider{forecast: rainyAfternoon()}
	clock := &fakeClock{t: day}
	s := newTestService(p, clock)
	ctx := context.Background()

	s.IsWeatherSuitable(ctx, outdoor(), models.At(day, 10*60))
	s.IsWeatherSuitable(ctx, outdoor(), models.At(day, 12*60))

	nearby := outdoor()
	nearby.ID = "island-walk"
	nearby.Location.Lat += 0.0001 // ~11m away, same cell
	s.IsWeatherSuitable(ctx, nearby, models.At(day, 11*60))
	assert.Equal(t, 1, p.hourlyCalls)

	clock.t = clock.t.Add(31 * time.Minute)
	s.IsWeatherSuitable(ctx, outdoor(), models.At(day, 10*60))
	assert.Equal(t, 2, p.hourlyCalls)
	assert.Equal(t, 1, p.timezoneCalls, "timezone entries never expire")
}

func TestForecastKey(t *testing.T) {
	a := ForecastKey(ForecastRequest{Lat: 43.6205, Lng: -79.3786, StartDate: "2025-08-03", EndDate: "2025-08-03", Timezone: "America/Toronto"})
	b := ForecastKey(ForecastRequest{Lat: 43.62051, Lng: -79.37861, StartDate: "2025-08-03", EndDate: "2025-08-03", Timezone: "America/Toronto"})
	c := ForecastKey(ForecastRequest{Lat: 43.6205, Lng: -79.3786, StartDate: "2025-08-04", EndDate: "2025-08-04", Timezone: "America/Toronto"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Clear sky", Describe(0))
	assert.Equal(t, "Heavy rain", Describe(65))
	assert.Equal(t, "Thunderstorm", Describe(95))
	assert.Equal(t, "Unknown (7)", Describe(7))
}

func TestOpenMeteoClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/search":
			if r.URL.Query().Get("name") == "Nowhere" {
				_, _ = w.Write([]byte(`{}`))
				return
			}
			_, _ = w.Write([]byte(`{"results":[{"name":"Toronto","timezone":"America/Toronto"}]}`))
		case "/v1/forecast":
			assert.Equal(t, "weathercode", r.URL.Query().Get("hourly"))
			assert.Equal(t, "2025-08-03", r.URL.Query().Get("start_date"))
			_, _ = w.Write([]byte(`{"hourly":{"time":["2025-08-03T00:00","2025-08-03T01:00"],"weathercode":[0,61]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewOpenMeteo(srv.URL, srv.URL, time.Second)
	ctx := context.Background()

	tz, err := c.Timezone(ctx, "Toronto")
	require.NoError(t, err)
	assert.Equal(t, "America/Toronto", tz)

	_, err = c.Timezone(ctx, "Nowhere")
	assert.ErrorIs(t, err, ErrCityNotFound)

	f, err := c.Hourly(ctx, ForecastRequest{Lat: 43.65, Lng: -79.38, StartDate: "2025-08-03", EndDate: "2025-08-03", Timezone: tz})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 61}, f.Codes)
	assert.Len(t, f.Times, 2)
}

func TestOpenMeteoClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewOpenMeteo(srv.URL, srv.URL, time.Second)
	_, err := c.Hourly(context.Background(), ForecastRequest{StartDate: "2025-08-03", EndDate: "2025-08-03"})
	assert.Error(t, err)

	// the service turns that into a suitable answer
	s := NewService(c, cache.NewMemoryStore(nil), DefaultConfig(), zerolog.Nop())
	assert.True(t, s.IsWeatherSuitable(context.Background(), outdoor(), models.At(day, 14*60)))
}
