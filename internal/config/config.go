package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/jengzang/itinerary-planner-go/internal/places"
	"github.com/jengzang/itinerary-planner-go/internal/planner"
	"github.com/jengzang/itinerary-planner-go/internal/weather"
)

// Prefix is the environment variable prefix, e.g. PLANNER_DB_PATH
const Prefix = "PLANNER"

// Config holds the application configuration
type Config struct {
	DBPath   string `envconfig:"DB_PATH" default:"./data/planner.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// External lookups
	WeatherBaseURL   string        `envconfig:"WEATHER_BASE_URL" default:"https://api.open-meteo.com"`
	GeocodingBaseURL string        `envconfig:"GEOCODING_BASE_URL" default:"https://geocoding-api.open-meteo.com"`
	PlacesBaseURL    string        `envconfig:"PLACES_BASE_URL" default:"https://maps.googleapis.com"`
	PlacesAPIKey     string        `envconfig:"PLACES_API_KEY"`
	LookupTimeout    time.Duration `envconfig:"LOOKUP_TIMEOUT" default:"3s"`
	WeatherTTL       time.Duration `envconfig:"WEATHER_TTL" default:"30m"`
	PlacesTTL        time.Duration `envconfig:"PLACES_TTL" default:"6h"`
	LookupRate       float64       `envconfig:"LOOKUP_RATE" default:"5"`
	LookupBurst      int           `envconfig:"LOOKUP_BURST" default:"5"`

	// Empty keeps the cache in memory
	RedisAddr   string `envconfig:"REDIS_ADDR"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"planner:"`

	PlanConcurrency int `envconfig:"PLAN_CONCURRENCY" default:"4"`

	// Planner flags
	UseHardConstraints bool `envconfig:"USE_HARD_CONSTRAINTS" default:"true"`
	UseWeather         bool `envconfig:"USE_WEATHER" default:"true"`
	UseBudget          bool `envconfig:"USE_BUDGET" default:"true"`
	UseMeals           bool `envconfig:"USE_MEALS" default:"true"`
	UseBasePlan        bool `envconfig:"USE_BASE_PLAN" default:"true"`
	UseRepairB         bool `envconfig:"USE_REPAIR_B" default:"true"`
	UseEnergy          bool `envconfig:"USE_ENERGY" default:"false"`
	DebugPrint         bool `envconfig:"DEBUG_PRINT" default:"false"`
	MaxMoves           int  `envconfig:"MAX_MOVES" default:"1"`
	TryOthers          bool `envconfig:"TRY_OTHERS" default:"true"`
	BeamWidth          int  `envconfig:"BEAM_WIDTH" default:"8"`
	AllowRepeats       bool `envconfig:"ALLOW_REPEATS" default:"false"`
}

// Load reads an optional .env file and then the PLANNER_ environment variables.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the planner cannot run with
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("DB_PATH must be set")
	}
	if c.MaxMoves < 0 {
		return fmt.Errorf("MAX_MOVES must be >= 0, got %d", c.MaxMoves)
	}
	if c.BeamWidth < 0 {
		return fmt.Errorf("BEAM_WIDTH must be >= 0, got %d", c.BeamWidth)
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("LOOKUP_TIMEOUT must be positive, got %s", c.LookupTimeout)
	}
	return nil
}

// Planner maps the flags onto a planner configuration
func (c *Config) Planner() planner.Config {
	return planner.Config{
		UseHardConstraints: c.UseHardConstraints,
		UseWeather:         c.UseWeather,
		UseBudget:          c.UseBudget,
		UseMeals:           c.UseMeals,
		UseBasePlan:        c.UseBasePlan,
		UseRepairB:         c.UseRepairB,
		UseEnergy:          c.UseEnergy,
		DebugPrint:         c.DebugPrint,
		MaxMoves:           c.MaxMoves,
		TryOthers:          c.TryOthers,
		BeamWidth:          c.BeamWidth,
		AllowRepeats:       c.AllowRepeats,
	}
}

// Weather returns the weather service settings
func (c *Config) Weather() weather.Config {
	return weather.Config{
		ForecastTTL: c.WeatherTTL,
		Timeout:     c.LookupTimeout,
		RatePerSec:  c.LookupRate,
		Burst:       c.LookupBurst,
	}
}

// Places returns the restaurant finder settings
func (c *Config) Places() places.FinderConfig {
	return places.FinderConfig{
		Timeout:    c.LookupTimeout,
		CacheTTL:   c.PlacesTTL,
		RatePerSec: c.LookupRate,
		Burst:      c.LookupBurst,
	}
}
