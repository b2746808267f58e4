package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// DefaultGoogleMapsURL is the Distance Matrix endpoint.
const DefaultGoogleMapsURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

// GoogleMaps resolves driving distances with the Google Distance Matrix API.
type GoogleMaps struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
}

// GoogleOption configures a GoogleMaps provider.
type GoogleOption func(*GoogleMaps)

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func WithBaseURL(u string) GoogleOption {
	return func(g *GoogleMaps) { g.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(g *GoogleMaps) { g.client = c }
}

// WithRetry sets the number of attempts and the initial backoff.
func WithRetry(attempts int, backoff time.Duration) GoogleOption {
	return func(g *GoogleMaps) {
		if attempts > 0 {
			g.maxAttempts = attempts
		}
		g.backoff = backoff
	}
}

// NewGoogleMaps creates a Distance Matrix client.
func NewGoogleMaps(apiKey string, opts ...GoogleOption) (*GoogleMaps, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	g := &GoogleMaps{
		apiKey:      apiKey,
		baseURL:     DefaultGoogleMapsURL,
		client:      &http.Client{Timeout: 10 * time.Second},
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"` // meters
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// Distance returns the driving distance in kilometers, rounded to two
// decimals.
func (g *GoogleMaps) Distance(ctx context.Context, from, to models.Location) (Result, error) {
	q := url.Values{}
	q.Set("origins", from.Coordinates())
	q.Set("destinations", to.Coordinates())
	q.Set("units", "metric")
	q.Set("mode", "driving")
	q.Set("key", g.apiKey)
	endpoint := g.baseURL + "?" + q.Encode()

	resp, err := doWithRetry(ctx, g.client, g.maxAttempts, g.backoff, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("distance matrix request: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return Result{}, fmt.Errorf("decode distance matrix response: %w", err)
	}
	if mr.Status != "OK" {
		return Result{}, fmt.Errorf("distance matrix status %s: %s", mr.Status, mr.ErrorMessage)
	}
	if len(mr.Rows) == 0 || len(mr.Rows[0].Elements) == 0 {
		return Result{}, fmt.Errorf("distance matrix: empty response")
	}
	el := mr.Rows[0].Elements[0]
	if el.Status != "OK" {
		return Result{}, fmt.Errorf("%s → %s: %s: %w", from.Name, to.Name, el.Status, ErrNoRoute)
	}
	return Result{Km: roundKm(el.Distance.Value / 1000), Source: models.SourceGoogleMaps}, nil
}
