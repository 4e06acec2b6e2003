package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Default Open-Meteo endpoints
const (
	DefaultForecastURL  = "https://api.open-meteo.com"
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com"
)

// ErrCityNotFound is returned when geocoding has no match for a city
var ErrCityNotFound = errors.New("city not found")

// ForecastRequest asks for hourly weather codes over a date range
type ForecastRequest struct {
	Lat       float64
	Lng       float64
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Timezone  string
}

// Forecast holds hourly wall-clock times (in the requested timezone) and their codes
type Forecast struct {
	Times []string `json:"time"`
	Codes []int    `json:"weathercode"`
}

// Provider is the remote weather API
type Provider interface {
	Timezone(ctx context.Context, city string) (string, error)
	Hourly(ctx context.Context, req ForecastRequest) (*Forecast, error)
}

// OpenMeteo calls the Open-Meteo forecast and geocoding APIs
type OpenMeteo struct {
	forecast  *resty.Client
	geocoding *resty.Client
}

// NewOpenMeteo creates a client for the given base URLs
func NewOpenMeteo(forecastURL, geocodingURL string, timeout time.Duration) *OpenMeteo {
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	if geocodingURL == "" {
		geocodingURL = DefaultGeocodingURL
	}
	return &OpenMeteo{
		forecast:  resty.New().SetBaseURL(forecastURL).SetTimeout(timeout),
		geocoding: resty.New().SetBaseURL(geocodingURL).SetTimeout(timeout),
	}
}

type geocodingResponse struct {
	Results []struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	} `json:"results"`
}

type forecastResponse struct {
	Hourly Forecast `json:"hourly"`
}

// Timezone resolves a city name to its IANA timezone
func (c *OpenMeteo) Timezone(ctx context.Context, city string) (string, error) {
	resp, err := c.geocoding.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"name": city, "count": "1"}).
		Get("/v1/search")
	if err != nil {
		return "", fmt.Errorf("geocoding request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("geocoding status %d: %s", resp.StatusCode(), resp.String())
	}

	var gr geocodingResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return "", fmt.Errorf("decode geocoding response: %w", err)
	}
	if len(gr.Results) == 0 || gr.Results[0].Timezone == "" {
		return "", fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}
	return gr.Results[0].Timezone, nil
}

// Hourly fetches hourly weather codes for a location
func (c *OpenMeteo) Hourly(ctx context.Context, req ForecastRequest) (*Forecast, error) {
	resp, err := c.forecast.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":   strconv.FormatFloat(req.Lat, 'f', 4, 64),
			"longitude":  strconv.FormatFloat(req.Lng, 'f', 4, 64),
			"hourly":     "weathercode",
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
			"timezone":   req.Timezone,
		}).
		Get("/v1/forecast")
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("forecast status %d: %s", resp.StatusCode(), resp.String())
	}

	var fr forecastResponse
	if err := json.Unmarshal(resp.Body(), &fr); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	if len(fr.Hourly.Times) != len(fr.Hourly.Codes) {
		return nil, fmt.Errorf("forecast has %d times but %d codes", len(fr.Hourly.Times), len(fr.Hourly.Codes))
	}
	return &fr.Hourly, nil
}
