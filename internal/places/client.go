package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jengzang/itinerary-planner-go/internal/models"
)

// DefaultBaseURL is the Google Maps API host
const DefaultBaseURL = "https://maps.googleapis.com"

// ErrNoAPIKey is returned when the client has no Places API key
var ErrNoAPIKey = errors.New("places api key not configured")

// Place is a single Places API result
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Types            []string `json:"types"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// Restaurant converts the result into the planner's model
func (p Place) Restaurant() models.Restaurant {
	vicinity := p.Vicinity
	if vicinity == "" {
		vicinity = p.FormattedAddress
	}
	price := -1
	if p.PriceLevel != nil {
		price = *p.PriceLevel
	}
	return models.Restaurant{
		PlaceID:     p.PlaceID,
		Name:        p.Name,
		Vicinity:    vicinity,
		Types:       p.Types,
		Rating:      p.Rating,
		ReviewCount: p.UserRatingsTotal,
		PriceLevel:  price,
		Location:    models.Location{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng},
	}
}

// Searcher is the remote places API
type Searcher interface {
	TextSearch(ctx context.Context, query string, loc models.Location, radiusM int) ([]Place, error)
	NearbySearch(ctx context.Context, loc models.Location, radiusM int, openNow bool) ([]Place, error)
}

// GoogleClient calls the Google Places web service
type GoogleClient struct {
	client *resty.Client
	apiKey string
}

// NewGoogleClient creates a Places client
func NewGoogleClient(baseURL, apiKey string, timeout time.Duration) *GoogleClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &GoogleClient{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey: apiKey,
	}
}

type searchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Results      []Place `json:"results"`
}

// TextSearch runs "<query> restaurant" biased to loc
func (c *GoogleClient) TextSearch(ctx context.Context, query string, loc models.Location, radiusM int) ([]Place, error) {
	return c.search(ctx, "/maps/api/place/textsearch/json", map[string]string{
		"query":    query + " restaurant",
		"location": latLng(loc),
		"radius":   strconv.Itoa(radiusM),
	})
}

// NearbySearch lists restaurants around loc
func (c *GoogleClient) NearbySearch(ctx context.Context, loc models.Location, radiusM int, openNow bool) ([]Place, error) {
	params := map[string]string{
		"location": latLng(loc),
		"radius":   strconv.Itoa(radiusM),
		"type":     "restaurant",
	}
	if openNow {
		params["opennow"] = "true"
	}
	return c.search(ctx, "/maps/api/place/nearbysearch/json", params)
}

func (c *GoogleClient) search(ctx context.Context, path string, params map[string]string) ([]Place, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	params["key"] = c.apiKey

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("places request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("places status %d: %s", resp.StatusCode(), resp.String())
	}

	var sr searchResponse
	if err := json.Unmarshal(resp.Body(), &sr); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}
	switch sr.Status {
	case "OK", "ZERO_RESULTS", "":
		return sr.Results, nil
	default:
		return nil, fmt.Errorf("places api status %s: %s", sr.Status, sr.ErrorMessage)
	}
}

func latLng(loc models.Location) string {
	return strconv.FormatFloat(loc.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(loc.Lng, 'f', 6, 64)
}
