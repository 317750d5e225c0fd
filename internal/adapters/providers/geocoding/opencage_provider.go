package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redhope/backend/internal/domain/providers"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const (
	openCageBaseURL    = "https://api.opencagedata.com"
	openCagePath       = "/geocode/v1/json"
	defaultHTTPTimeout = 8 * time.Second
)

// OpenCageProvider reverse geocodes through the OpenCage Data API. Calls go
// through a circuit breaker so an outage fails fast instead of stacking
// timeouts on every request.
type OpenCageProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewOpenCageProvider creates a provider against the public endpoint.
func NewOpenCageProvider(apiKey string) *OpenCageProvider {
	return NewOpenCageProviderWithOptions(apiKey, openCageBaseURL, nil)
}

// NewOpenCageProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewOpenCageProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) *OpenCageProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = openCageBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &OpenCageProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "opencage",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("geocoding circuit breaker state changed")
			},
		}),
	}
}

var _ providers.GeocodingProvider = (*OpenCageProvider)(nil)

// Name identifies the provider
func (p *OpenCageProvider) Name() string {
	return "opencage"
}

// ReverseGeocode resolves coordinates to the first OpenCage result.
func (p *OpenCageProvider) ReverseGeocode(ctx context.Context, lat, lng float64, language string) (*providers.GeocodedAddress, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("opencage api key is required")
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.doReverseRequest(ctx, lat, lng, language)
	})
	if err != nil {
		return nil, err
	}
	return out.(*providers.GeocodedAddress), nil
}

func (p *OpenCageProvider) doReverseRequest(ctx context.Context, lat, lng float64, language string) (*providers.GeocodedAddress, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("key", p.apiKey)
	if language != "" {
		params.Set("language", language)
	}
	params.Set("no_annotations", "1")

	reqURL := fmt.Sprintf("%s%s?%s", p.baseURL, openCagePath, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocode request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("no results for coordinates")
	}

	result := payload.Results[0]
	components := stringComponents(result.Components)
	return &providers.GeocodedAddress{
		Formatted:  result.Formatted,
		Components: components,
		Country:    components["country"],
		State:      first(components, "state", "province", "region"),
		County:     first(components, "county", "state_district"),
		City:       first(components, "city", "town", "village", "municipality"),
		Hamlet:     first(components, "hamlet", "suburb", "neighbourhood"),
		PostalCode: components["postcode"],
	}, nil
}

// stringComponents keeps the string valued entries; OpenCage also returns
// numbers and nested objects for some keys.
func stringComponents(raw map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
		}
	}
	return out
}

func first(components map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(components[k]); v != "" {
			return v
		}
	}
	return ""
}

type openCageResponse struct {
	Results []openCageResult `json:"results"`
	Status  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

type openCageResult struct {
	Formatted  string                     `json:"formatted"`
	Components map[string]json.RawMessage `json:"components"`
}
