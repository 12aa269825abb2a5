package calendar

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the xmlcalendar.ru data root for Russia
	DefaultBaseURL     = "http://xmlcalendar.ru/data/ru/"
	defaultHTTPTimeout = 10 * time.Second
	maxDocumentSize    = 1 << 20
)

// Fetcher downloads the raw yearly calendar document
type Fetcher interface {
	Fetch(year int) ([]byte, error)
}

// HTTPFetcher implements Fetcher for <base-url>/<year>/calendar.json
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPFetcher creates a new HTTPFetcher instance
func NewHTTPFetcher(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &HTTPFetcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// URL returns the document URL for year
func (f *HTTPFetcher) URL(year int) string {
	return f.baseURL + "/" + strconv.Itoa(year) + "/calendar.json"
}

// Fetch downloads the document for year. Every failure is KindRemoteUnavailable.
func (f *HTTPFetcher) Fetch(year int) ([]byte, error) {
	url := f.URL(year)

	f.logger.Info("Downloading calendar data",
		zap.String("url", url),
		zap.Int("year", year))

	resp, err := f.httpClient.Get(url)
	if err != nil {
		return nil, remoteUnavailable(year, "failed to fetch calendar data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, remoteUnavailable(year, "calendar source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, remoteUnavailable(year, "failed to read response: %w", err)
	}

	f.logger.Debug("Calendar data downloaded",
		zap.Int("year", year),
		zap.Int("bytes", len(body)))

	return body, nil
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(year int) ([]byte, error)

// Fetch calls fn(year)
func (fn FetcherFunc) Fetch(year int) ([]byte, error) {
	return fn(year)
}
