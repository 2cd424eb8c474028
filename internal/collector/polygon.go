package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"DipSentinel/internal/model"
)

// PolygonFetcher implements Fetcher using the Polygon.io aggregates API.
type PolygonFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewPolygonFetcher creates a new fetcher with optional proxy support.
func NewPolygonFetcher(baseURL, apiKey, proxyURL string) *PolygonFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &PolygonFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// polygonAggs is the expected JSON shape of the aggregates endpoint.
type polygonAggs struct {
	Ticker       string `json:"ticker"`
	Status       string `json:"status"`
	ResultsCount int    `json:"resultsCount"`
	Results      []struct {
		Timestamp int64   `json:"t"` // start of the day, ms
		Open      float64 `json:"o"`
		High      float64 `json:"h"`
		Low       float64 `json:"l"`
		Close     float64 `json:"c"`
		Volume    float64 `json:"v"`
	} `json:"results"`
	Error string `json:"error"`
}

func (f *PolygonFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=50000",
		f.BaseURL, url.PathEscape(symbol), model.DateString(start), model.DateString(end))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polygon fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polygon read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("polygon: status %d, body: %s", resp.StatusCode, string(body))
	default:
		// 4xx other than 429: unknown ticker, bad key, bad request.
		return nil, Permanent(fmt.Errorf("polygon: status %d, body: %s", resp.StatusCode, string(body)))
	}

	var aggs polygonAggs
	if err := json.Unmarshal(body, &aggs); err != nil {
		return nil, fmt.Errorf("polygon decode: %w", err)
	}
	if aggs.Error != "" {
		return nil, Permanent(fmt.Errorf("polygon api error: %s", aggs.Error))
	}

	bars := make([]model.Bar, 0, len(aggs.Results))
	for _, r := range aggs.Results {
		bars = append(bars, model.Bar{
			Symbol: symbol,
			Date:   model.Day(time.UnixMilli(r.Timestamp).UTC()),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: int64(r.Volume),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
