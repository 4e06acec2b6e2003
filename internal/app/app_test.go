package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/itinerary-planner-go/internal/cache"
	"github.com/jengzang/itinerary-planner-go/internal/config"
	"github.com/jengzang/itinerary-planner-go/internal/database"
	"github.com/jengzang/itinerary-planner-go/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		DBPath:          database.MemoryPath,
		LogLevel:        "error",
		LookupTimeout:   time.Second,
		WeatherTTL:      time.Minute,
		PlacesTTL:       time.Minute,
		LookupRate:      5,
		LookupBurst:     5,
		PlanConcurrency: 2,
		UseMeals:        true,
		UseBudget:       true,
		UseRepairB:      true,
		UseWeather:      true,
		MaxMoves:        1,
		BeamWidth:       4,
	}
}

func TestNewWiresMemoryCache(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &cache.MemoryStore{}, a.Cache)
	assert.NotNil(t, a.Planning)
}

func TestNewPlansStoredClient(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig())
	require.NoError(t, err)
	defer a.Close()

	start := time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.Clients.Save(ctx, &models.Client{
		ID: "solo",
		Members: map[string]*models.PartyMember{
			"ana": {Name: "ana", Age: 30, InterestWeights: map[string]float64{"museum": 9}},
		},
		BudgetTotal: 100,
		TripStart:   start,
		TripEnd:     start,
		HomeBase:    models.Location{Lat: 43.65, Lng: -79.38, City: "Toronto"},
		DayStartMin: 9 * 60,
		DayEndMin:   18 * 60,
	}))
	w := models.Window{OpenMin: 10 * 60, CloseMin: 17 * 60}
	require.NoError(t, a.Activities.Save(ctx, &models.Activity{
		ID:           "rom",
		Name:         "Royal Ontario Museum",
		Tags:         []string{"museum"},
		City:         "Toronto",
		DurationMin:  120,
		OpeningHours: models.OpeningHours{Daily: &w},
	}))

	report, err := a.Planning.PlanClient(ctx, "solo")
	require.NoError(t, err)
	require.Len(t, report.Days, 1)
	require.Len(t, report.Days[0].Events, 1)
	assert.Equal(t, "rom", report.Days[0].Events[0].Activity.ID)
}

func TestNewFailsOnUnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.RedisAddr = "127.0.0.1:1"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
