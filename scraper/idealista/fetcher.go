package idealista

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"idealista-watcher/config"
	"idealista-watcher/models"
	"idealista-watcher/utils"
)

const (
	baseURL   = "https://www.idealista.com"
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"
	maxBodyBytes = 8 << 20
)

// SearchURL returns the configured override or builds the long-term rental
// search for the city, sorted by publication date, limited to the last 24h.
func SearchURL(cfg *config.Config) string {
	if cfg.SearchURL != "" {
		return cfg.SearchURL
	}
	return fmt.Sprintf(
		"%s/alquiler-viviendas/%s/con-precio-hasta_%d,metros-cuadrados-mas-de_%d,"+
			"publicado_ultimas-24-horas,alquiler-de-larga-temporada/?ordenado-por=fecha-publicacion-desc",
		baseURL, cfg.SearchCity, cfg.MaxPrice, cfg.MinSize)
}

// HTTPFetcher requests the search page with browser-like headers.
type HTTPFetcher struct {
	client *http.Client
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// NewHTTPFetcher creates an HTTPFetcher. Transport failures are retried with
// exponential back-off; any HTTP response, whatever its status, is returned.
func NewHTTPFetcher(cfg *config.Config, logger *utils.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: time.Duration(cfg.FetchTimeoutSec) * time.Second},
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*models.FetchResult, error) {
	var result *models.FetchResult

	err := f.retry.Do(ctx, "fetch-search-page", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Referer", "https://www.google.com/")

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		result = &models.FetchResult{StatusCode: resp.StatusCode, Body: body}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("idealista: %w", err)
	}

	f.logger.Debug("[idealista] GET %s → %d (%d bytes)", shorten(url), result.StatusCode, len(result.Body))
	return result, nil
}

func shorten(u string) string {
	if i := strings.Index(u, "?"); i > 0 {
		return u[:i]
	}
	return u
}
